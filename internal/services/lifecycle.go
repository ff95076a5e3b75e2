package services

import (
	"context"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/pkg/geocode"
	"lifeline/pkg/logger"
)

// callLifecycle bundles the dependencies every lifecycle mutation needs.
// CallService, DispatchService, and SMSLocationService all embed it so
// the shared transitions live in exactly one place.
type callLifecycle struct {
	callRepo      interfaces.CallRepository
	ambulanceRepo interfaces.AmbulanceRepository
	geocoder      geocode.Geocoder
	events        EventPublisher
	logger        *logger.Logger
}

func (l *callLifecycle) publish(event string, data interface{}) {
	if l.events != nil {
		l.events.Publish(event, data)
	}
}

// applyLocation records a resolved location on a pending call. The SMS code
// is cleared here so a consumed or superseded code can never match again.
func (l *callLifecycle) applyLocation(ctx context.Context, call *models.EmergencyCall, lat, lng float64, method models.LocationMethod) error {
	if err := call.Transition(models.CallStatusLocationShared); err != nil {
		return err
	}

	now := time.Now()
	call.Latitude = &lat
	call.Longitude = &lng
	call.LocationMethod = method
	call.LocationSharedAt = &now
	call.SMSLocationCode = ""
	call.SMSCodeExpiry = nil

	if l.geocoder != nil {
		if address, err := l.geocoder.ReverseGeocode(ctx, lat, lng); err == nil {
			call.Address = address
		} else {
			l.logger.WithCallID(call.ID.Hex()).WithError(err).Debug("reverse geocode failed")
		}
	}

	if err := l.callRepo.Update(ctx, call); err != nil {
		return err
	}

	l.publish(EventCallLocationShared, call)
	return nil
}

func (l *callLifecycle) assignTo(ctx context.Context, call *models.EmergencyCall, ambulance *models.Ambulance) error {
	prev := call.Status
	if err := call.Transition(models.CallStatusAssigned); err != nil {
		return err
	}

	now := time.Now()
	call.AssignedAmbulanceID = &ambulance.ID
	call.AssignedAt = &now

	// Conditional on the pre-assignment status so two dispatchers racing on
	// the same call cannot both record an assignment. The loser's reserved
	// unit is released by the caller.
	if err := l.callRepo.UpdateExpectingStatus(ctx, call, prev); err != nil {
		return err
	}

	l.publish(EventCallAssigned, call)
	return nil
}

func (l *callLifecycle) complete(ctx context.Context, call *models.EmergencyCall) error {
	if err := call.Transition(models.CallStatusCompleted); err != nil {
		return err
	}

	now := time.Now()
	call.CompletedAt = &now

	if err := l.callRepo.Update(ctx, call); err != nil {
		return err
	}

	l.releaseAssigned(ctx, call)
	l.publish(EventCallCompleted, call)
	return nil
}

func (l *callLifecycle) cancel(ctx context.Context, call *models.EmergencyCall) error {
	if err := call.Transition(models.CallStatusCancelled); err != nil {
		return err
	}

	if err := l.callRepo.Update(ctx, call); err != nil {
		return err
	}

	l.releaseAssigned(ctx, call)
	l.publish(EventCallCancelled, call)
	return nil
}

// releaseAssigned puts the unit back into the available pool once its call
// reaches a terminal state. A failed release leaves the unit parked
// unavailable, which is visible on the dashboard, so a warning is enough.
func (l *callLifecycle) releaseAssigned(ctx context.Context, call *models.EmergencyCall) {
	if call.AssignedAmbulanceID == nil {
		return
	}
	if err := l.ambulanceRepo.Release(ctx, *call.AssignedAmbulanceID); err != nil {
		l.logger.WithCallID(call.ID.Hex()).
			WithError(err).
			Warn("failed to release ambulance after call closed")
	}
}
