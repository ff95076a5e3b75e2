package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ambulanceRepository struct {
	collection *mongo.Collection
}

func NewAmbulanceRepository(db *mongo.Database) interfaces.AmbulanceRepository {
	return &ambulanceRepository{
		collection: db.Collection("ambulances"),
	}
}

func (r *ambulanceRepository) Create(ctx context.Context, ambulance *models.Ambulance) error {
	ambulance.ID = primitive.NewObjectID()
	ambulance.LastUpdated = time.Now()

	_, err := r.collection.InsertOne(ctx, ambulance)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateVehicle
		}
		return fmt.Errorf("failed to create ambulance: %w", err)
	}

	return nil
}

func (r *ambulanceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	var ambulance models.Ambulance
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ambulance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrAmbulanceNotFound
		}
		return nil, fmt.Errorf("failed to get ambulance: %w", err)
	}
	return &ambulance, nil
}

func (r *ambulanceRepository) GetByVehicleNumber(ctx context.Context, vehicleNumber string) (*models.Ambulance, error) {
	var ambulance models.Ambulance
	err := r.collection.FindOne(ctx, bson.M{"vehicle_number": vehicleNumber}).Decode(&ambulance)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrAmbulanceNotFound
		}
		return nil, fmt.Errorf("failed to get ambulance: %w", err)
	}
	return &ambulance, nil
}

func (r *ambulanceRepository) List(ctx context.Context) ([]*models.Ambulance, error) {
	return r.find(ctx, bson.M{})
}

func (r *ambulanceRepository) ListAvailable(ctx context.Context) ([]*models.Ambulance, error) {
	return r.find(ctx, bson.M{"is_available": true})
}

func (r *ambulanceRepository) find(ctx context.Context, filter bson.M) ([]*models.Ambulance, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find ambulances: %w", err)
	}
	defer cursor.Close(ctx)

	var ambulances []*models.Ambulance
	for cursor.Next(ctx) {
		var ambulance models.Ambulance
		if err := cursor.Decode(&ambulance); err != nil {
			return nil, fmt.Errorf("failed to decode ambulance: %w", err)
		}
		ambulances = append(ambulances, &ambulance)
	}

	return ambulances, nil
}

func (r *ambulanceRepository) UpdateLocation(ctx context.Context, vehicleNumber string, lat, lng float64) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"vehicle_number": vehicleNumber},
		bson.M{"$set": bson.M{
			"latitude":     lat,
			"longitude":    lng,
			"last_updated": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update ambulance location: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrAmbulanceNotFound
	}
	return nil
}

// Reserve is a compare-and-swap: the filter only matches while the unit is
// still available, so concurrent reservations cannot both succeed.
func (r *ambulanceRepository) Reserve(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "is_available": true},
		bson.M{"$set": bson.M{
			"is_available": false,
			"last_updated": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to reserve ambulance: %w", err)
	}
	if result.MatchedCount == 0 {
		// Either the unit vanished or someone else won the race.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return models.ErrAmbulanceNotAvailable
	}
	return nil
}

func (r *ambulanceRepository) Release(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"is_available": true,
			"last_updated": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to release ambulance: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrAmbulanceNotFound
	}
	return nil
}
