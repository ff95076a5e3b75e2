package interfaces

import (
	"context"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CallRepository interface {
	Create(ctx context.Context, call *models.EmergencyCall) error

	GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmergencyCall, error)
	GetByShareToken(ctx context.Context, token string) (*models.EmergencyCall, error)

	// GetBySMSCode finds the call holding a live location code, restricted
	// to the given statuses.
	GetBySMSCode(ctx context.Context, code string, statuses []models.CallStatus) (*models.EmergencyCall, error)

	// GetLatestByCallerPhone returns the most recently created call from
	// this number in one of the given statuses.
	GetLatestByCallerPhone(ctx context.Context, phone string, statuses []models.CallStatus) (*models.EmergencyCall, error)

	// GetActiveAssignment returns the call currently assigned to the
	// ambulance, if any.
	GetActiveAssignment(ctx context.Context, ambulanceID primitive.ObjectID) (*models.EmergencyCall, error)

	// ListActive returns all non-terminal calls, newest first, for the
	// dispatcher dashboard.
	ListActive(ctx context.Context) ([]*models.EmergencyCall, error)

	Update(ctx context.Context, call *models.EmergencyCall) error

	// UpdateExpectingStatus persists the call only if the stored record is
	// still in the expected status. A concurrent writer that moved the call
	// on first surfaces as *models.InvalidTransitionError, so compensating
	// actions can run instead of silently overwriting the other write.
	UpdateExpectingStatus(ctx context.Context, call *models.EmergencyCall, expected models.CallStatus) error

	// UpdateClaimingCode persists the call while enforcing that its
	// SMSLocationCode is unique among live codes. Returns
	// models.ErrDuplicateCode on a collision so the caller can regenerate.
	UpdateClaimingCode(ctx context.Context, call *models.EmergencyCall) error
}
