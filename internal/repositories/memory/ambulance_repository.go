package memory

import (
	"context"
	"sync"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ambulanceRepository keeps the fleet in process memory behind a mutex. The
// mutex makes Reserve/Release a true compare-and-swap, which is what the
// dispatch engine relies on for exclusive assignment.
type ambulanceRepository struct {
	mu         sync.RWMutex
	byID       map[primitive.ObjectID]*models.Ambulance
	byVehicle  map[string]primitive.ObjectID
	insertions []primitive.ObjectID
}

func NewAmbulanceRepository() interfaces.AmbulanceRepository {
	return &ambulanceRepository{
		byID:      make(map[primitive.ObjectID]*models.Ambulance),
		byVehicle: make(map[string]primitive.ObjectID),
	}
}

func (r *ambulanceRepository) Create(ctx context.Context, ambulance *models.Ambulance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byVehicle[ambulance.VehicleNumber]; exists {
		return models.ErrDuplicateVehicle
	}

	if ambulance.ID.IsZero() {
		ambulance.ID = primitive.NewObjectID()
	}
	ambulance.LastUpdated = time.Now()

	stored := *ambulance
	r.byID[ambulance.ID] = &stored
	r.byVehicle[ambulance.VehicleNumber] = ambulance.ID
	r.insertions = append(r.insertions, ambulance.ID)
	return nil
}

func (r *ambulanceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, models.ErrAmbulanceNotFound
	}
	dup := *stored
	return &dup, nil
}

func (r *ambulanceRepository) GetByVehicleNumber(ctx context.Context, vehicleNumber string) (*models.Ambulance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byVehicle[vehicleNumber]
	if !ok {
		return nil, models.ErrAmbulanceNotFound
	}
	dup := *r.byID[id]
	return &dup, nil
}

func (r *ambulanceRepository) List(ctx context.Context) ([]*models.Ambulance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Ambulance, 0, len(r.insertions))
	for _, id := range r.insertions {
		dup := *r.byID[id]
		out = append(out, &dup)
	}
	return out, nil
}

func (r *ambulanceRepository) ListAvailable(ctx context.Context) ([]*models.Ambulance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Ambulance
	for _, id := range r.insertions {
		if a := r.byID[id]; a.IsAvailable {
			dup := *a
			out = append(out, &dup)
		}
	}
	return out, nil
}

func (r *ambulanceRepository) UpdateLocation(ctx context.Context, vehicleNumber string, lat, lng float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byVehicle[vehicleNumber]
	if !ok {
		return models.ErrAmbulanceNotFound
	}

	a := r.byID[id]
	a.Latitude = lat
	a.Longitude = lng
	a.LastUpdated = time.Now()
	return nil
}

func (r *ambulanceRepository) Reserve(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return models.ErrAmbulanceNotFound
	}
	if !a.IsAvailable {
		return models.ErrAmbulanceNotAvailable
	}
	a.IsAvailable = false
	a.LastUpdated = time.Now()
	return nil
}

func (r *ambulanceRepository) Release(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return models.ErrAmbulanceNotFound
	}
	a.IsAvailable = true
	a.LastUpdated = time.Now()
	return nil
}
