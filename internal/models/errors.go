package models

import (
	"errors"
	"fmt"
)

// Domain failures are sentinel values so callers can branch on them with
// errors.Is. Infrastructure failures (storage unreachable, provider down)
// are wrapped with %w instead and propagate as-is.
var (
	ErrCallNotFound          = errors.New("emergency call not found")
	ErrAmbulanceNotFound     = errors.New("ambulance not found")
	ErrDuplicateVehicle      = errors.New("vehicle number already registered")
	ErrDuplicateCode         = errors.New("location code already in use")
	ErrNoAmbulancesAvailable = errors.New("no ambulances available")
	ErrAmbulanceNotAvailable = errors.New("ambulance is not available")
	ErrCallNotAssigned       = errors.New("call has no assigned ambulance")
	ErrLocationMissing       = errors.New("call has no location")
	ErrInvalidCoordinates    = errors.New("coordinates out of range")
	ErrInvalidPhone          = errors.New("invalid phone number")
	ErrCodeExpired           = errors.New("location code has expired")
	ErrNoContact             = errors.New("call has no caller phone number")
)

// InvalidTransitionError reports an attempted illegal status transition.
type InvalidTransitionError struct {
	From CallStatus
	To   CallStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid call status transition: %s -> %s", e.From, e.To)
}

// IsInvalidTransition reports whether err is a state machine violation.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
