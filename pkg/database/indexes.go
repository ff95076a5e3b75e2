package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the dispatch engine depends on. The
// unique sparse index on sms_location_code is load-bearing: it is what
// turns a concurrent code collision into a retryable duplicate-key error.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ambulanceIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "vehicle_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "is_available", Value: 1}},
		},
	}

	if _, err := db.Collection("ambulances").Indexes().CreateMany(ctx, ambulanceIndexes); err != nil {
		return fmt.Errorf("failed to create ambulance indexes: %w", err)
	}

	callIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "share_token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "sms_location_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "caller_phone", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "assigned_ambulance_id", Value: 1}, {Key: "status", Value: 1}},
		},
	}

	if _, err := db.Collection("emergency_calls").Indexes().CreateMany(ctx, callIndexes); err != nil {
		return fmt.Errorf("failed to create emergency call indexes: %w", err)
	}

	return nil
}
