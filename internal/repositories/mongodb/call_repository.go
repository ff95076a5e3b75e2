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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	callCachePrefix = "call:"
	callCacheTTL    = 5 * time.Minute
)

// CacheService is the slice of the Redis cache the call repository needs.
type CacheService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type callRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

// NewCallRepository builds the Mongo-backed call store. cache may be nil;
// caching is an optimization for dashboard reads, never a source of truth.
func NewCallRepository(db *mongo.Database, cache CacheService) interfaces.CallRepository {
	return &callRepository{
		collection: db.Collection("emergency_calls"),
		cache:      cache,
	}
}

func (r *callRepository) Create(ctx context.Context, call *models.EmergencyCall) error {
	call.ID = primitive.NewObjectID()
	call.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, call)
	if err != nil {
		return fmt.Errorf("failed to create emergency call: %w", err)
	}

	r.cacheCall(ctx, call)
	return nil
}

func (r *callRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmergencyCall, error) {
	if call := r.callFromCache(ctx, id.Hex()); call != nil {
		return call, nil
	}

	var call models.EmergencyCall
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&call)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get emergency call: %w", err)
	}

	r.cacheCall(ctx, &call)
	return &call, nil
}

func (r *callRepository) GetByShareToken(ctx context.Context, token string) (*models.EmergencyCall, error) {
	var call models.EmergencyCall
	err := r.collection.FindOne(ctx, bson.M{"share_token": token}).Decode(&call)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get call by share token: %w", err)
	}
	return &call, nil
}

func (r *callRepository) GetBySMSCode(ctx context.Context, code string, statuses []models.CallStatus) (*models.EmergencyCall, error) {
	filter := bson.M{
		"sms_location_code": code,
		"status":            bson.M{"$in": statuses},
	}

	var call models.EmergencyCall
	err := r.collection.FindOne(ctx, filter).Decode(&call)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get call by location code: %w", err)
	}
	return &call, nil
}

func (r *callRepository) GetLatestByCallerPhone(ctx context.Context, phone string, statuses []models.CallStatus) (*models.EmergencyCall, error) {
	filter := bson.M{
		"caller_phone": phone,
		"status":       bson.M{"$in": statuses},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var call models.EmergencyCall
	err := r.collection.FindOne(ctx, filter, opts).Decode(&call)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get latest call for caller: %w", err)
	}
	return &call, nil
}

func (r *callRepository) GetActiveAssignment(ctx context.Context, ambulanceID primitive.ObjectID) (*models.EmergencyCall, error) {
	filter := bson.M{
		"assigned_ambulance_id": ambulanceID,
		"status":                models.CallStatusAssigned,
	}

	var call models.EmergencyCall
	err := r.collection.FindOne(ctx, filter).Decode(&call)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	return &call, nil
}

func (r *callRepository) ListActive(ctx context.Context) ([]*models.EmergencyCall, error) {
	filter := bson.M{"status": bson.M{"$nin": []models.CallStatus{
		models.CallStatusCompleted,
		models.CallStatusCancelled,
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list active calls: %w", err)
	}
	defer cursor.Close(ctx)

	var calls []*models.EmergencyCall
	for cursor.Next(ctx) {
		var call models.EmergencyCall
		if err := cursor.Decode(&call); err != nil {
			return nil, fmt.Errorf("failed to decode emergency call: %w", err)
		}
		calls = append(calls, &call)
	}

	return calls, nil
}

func (r *callRepository) Update(ctx context.Context, call *models.EmergencyCall) error {
	// ReplaceOne drops unset omitempty fields from the document, which is
	// how a consumed SMS code leaves the unique index.
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": call.ID}, call)
	if err != nil {
		return fmt.Errorf("failed to update emergency call: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrCallNotFound
	}

	r.invalidateCall(ctx, call.ID.Hex())
	return nil
}

func (r *callRepository) UpdateExpectingStatus(ctx context.Context, call *models.EmergencyCall, expected models.CallStatus) error {
	// The status in the filter makes the replace a compare-and-swap: if a
	// concurrent writer already moved the call, nothing matches and the
	// caller gets a transition error instead of overwriting that write.
	filter := bson.M{"_id": call.ID, "status": expected}
	result, err := r.collection.ReplaceOne(ctx, filter, call)
	if err != nil {
		return fmt.Errorf("failed to update emergency call: %w", err)
	}
	if result.MatchedCount == 0 {
		var current models.EmergencyCall
		// Read the collection directly; a cached snapshot could predate the
		// write that made the swap fail.
		findErr := r.collection.FindOne(ctx, bson.M{"_id": call.ID}).Decode(&current)
		if findErr != nil {
			if errors.Is(findErr, mongo.ErrNoDocuments) {
				return models.ErrCallNotFound
			}
			return fmt.Errorf("failed to get emergency call: %w", findErr)
		}
		return &models.InvalidTransitionError{From: current.Status, To: call.Status}
	}

	r.invalidateCall(ctx, call.ID.Hex())
	return nil
}

func (r *callRepository) UpdateClaimingCode(ctx context.Context, call *models.EmergencyCall) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": call.ID}, call)
	if err != nil {
		// The unique sparse index on sms_location_code turns a collision
		// into a duplicate key error.
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateCode
		}
		return fmt.Errorf("failed to store location code: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrCallNotFound
	}

	r.invalidateCall(ctx, call.ID.Hex())
	return nil
}

func (r *callRepository) cacheCall(ctx context.Context, call *models.EmergencyCall) {
	if r.cache == nil || call.Status.IsTerminal() {
		return
	}
	_ = r.cache.Set(ctx, callCachePrefix+call.ID.Hex(), call, callCacheTTL)
}

func (r *callRepository) callFromCache(ctx context.Context, id string) *models.EmergencyCall {
	if r.cache == nil {
		return nil
	}
	var call models.EmergencyCall
	if err := r.cache.Get(ctx, callCachePrefix+id, &call); err != nil {
		return nil
	}
	return &call
}

func (r *callRepository) invalidateCall(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(ctx, callCachePrefix+id)
}
