package interfaces

import (
	"context"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AmbulanceRepository interface {
	// Create registers a new ambulance. Returns models.ErrDuplicateVehicle
	// if the vehicle number is already taken.
	Create(ctx context.Context, ambulance *models.Ambulance) error

	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error)
	GetByVehicleNumber(ctx context.Context, vehicleNumber string) (*models.Ambulance, error)

	List(ctx context.Context) ([]*models.Ambulance, error)

	// ListAvailable returns a snapshot of ambulances whose availability flag
	// is set at call time. Order is unspecified.
	ListAvailable(ctx context.Context) ([]*models.Ambulance, error)

	UpdateLocation(ctx context.Context, vehicleNumber string, lat, lng float64) error

	// Reserve flips availability true -> false as a compare-and-swap keyed
	// by id. Returns models.ErrAmbulanceNotAvailable when the flag is
	// already down, so racing dispatchers cannot both win the same unit.
	Reserve(ctx context.Context, id primitive.ObjectID) error

	// Release flips availability back to true after completion or
	// cancellation.
	Release(ctx context.Context, id primitive.ObjectID) error
}
