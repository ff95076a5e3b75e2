package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/utils"
	"lifeline/pkg/logger"
	"lifeline/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DispatchService interface {
	// AssignNearest reserves the closest available unit for the call and
	// records the assignment on the ledger.
	AssignNearest(ctx context.Context, callID primitive.ObjectID) (*models.AssignmentSummary, error)

	// MarkArrived and CompleteCall are driver-side operations keyed by
	// vehicle number. They report false when the unit has no active call.
	MarkArrived(ctx context.Context, vehicleNumber string) (bool, error)
	CompleteCall(ctx context.Context, vehicleNumber string) (bool, error)
}

type dispatchService struct {
	callLifecycle
	smsProvider sms.SMSProvider
	config      *config.DispatchConfig
}

func NewDispatchService(
	cfg *config.DispatchConfig,
	callRepo interfaces.CallRepository,
	ambulanceRepo interfaces.AmbulanceRepository,
	smsProvider sms.SMSProvider,
	events EventPublisher,
	log *logger.Logger,
) DispatchService {
	return &dispatchService{
		callLifecycle: callLifecycle{
			callRepo:      callRepo,
			ambulanceRepo: ambulanceRepo,
			events:        events,
			logger:        log,
		},
		smsProvider: smsProvider,
		config:      cfg,
	}
}

func (s *dispatchService) AssignNearest(ctx context.Context, callID primitive.ObjectID) (*models.AssignmentSummary, error) {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !call.HasLocation() {
		return nil, models.ErrLocationMissing
	}
	if !call.Status.CanTransitionTo(models.CallStatusAssigned) {
		return nil, &models.InvalidTransitionError{From: call.Status, To: models.CallStatusAssigned}
	}

	// Reservation is a per-unit CAS. Losing the race to another dispatcher
	// is normal; re-query the snapshot and try the next nearest unit.
	for attempt := 0; attempt <= s.config.AssignMaxRetries; attempt++ {
		available, err := s.ambulanceRepo.ListAvailable(ctx)
		if err != nil {
			return nil, err
		}
		if len(available) == 0 {
			return nil, models.ErrNoAmbulancesAvailable
		}

		nearest, distance := nearestUnit(available, *call.Latitude, *call.Longitude)

		if err := s.ambulanceRepo.Reserve(ctx, nearest.ID); err != nil {
			if errors.Is(err, models.ErrAmbulanceNotAvailable) || errors.Is(err, models.ErrAmbulanceNotFound) {
				s.logger.WithCallID(call.ID.Hex()).
					WithField("vehicle_number", nearest.VehicleNumber).
					Debug("lost reservation race, retrying")
				continue
			}
			return nil, err
		}

		if err := s.assignTo(ctx, call, nearest); err != nil {
			// Compensate: the unit was reserved but the ledger rejected the
			// assignment, so put it back in the pool.
			if relErr := s.ambulanceRepo.Release(ctx, nearest.ID); relErr != nil {
				s.logger.WithError(relErr).
					WithField("vehicle_number", nearest.VehicleNumber).
					Error("failed to release ambulance after assignment rollback")
			}
			return nil, err
		}

		eta := utils.EstimateETAMinutes(distance, s.config.AvgSpeedKMH)
		summary := &models.AssignmentSummary{
			CallID:        call.ID,
			AmbulanceID:   nearest.ID,
			VehicleNumber: nearest.VehicleNumber,
			DriverName:    nearest.DriverName,
			DriverPhone:   nearest.DriverPhone,
			DistanceKM:    distance,
			ETAMinutes:    eta,
		}

		s.notifyAssignment(ctx, call, nearest, summary)
		return summary, nil
	}

	return nil, models.ErrNoAmbulancesAvailable
}

func (s *dispatchService) MarkArrived(ctx context.Context, vehicleNumber string) (bool, error) {
	call, ambulance, err := s.activeCallFor(ctx, vehicleNumber)
	if err != nil {
		if errors.Is(err, models.ErrCallNotFound) {
			return false, nil
		}
		return false, err
	}

	now := time.Now()
	call.PickupAt = &now
	if err := s.callRepo.Update(ctx, call); err != nil {
		return false, err
	}

	s.publish(EventCallPickup, call)
	s.sendSMS(ctx, call.CallerPhone,
		fmt.Sprintf("Ambulance %s has arrived at your location.", ambulance.VehicleNumber))
	return true, nil
}

func (s *dispatchService) CompleteCall(ctx context.Context, vehicleNumber string) (bool, error) {
	call, _, err := s.activeCallFor(ctx, vehicleNumber)
	if err != nil {
		if errors.Is(err, models.ErrCallNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.complete(ctx, call); err != nil {
		return false, err
	}
	return true, nil
}

func (s *dispatchService) activeCallFor(ctx context.Context, vehicleNumber string) (*models.EmergencyCall, *models.Ambulance, error) {
	ambulance, err := s.ambulanceRepo.GetByVehicleNumber(ctx, vehicleNumber)
	if err != nil {
		return nil, nil, err
	}
	call, err := s.callRepo.GetActiveAssignment(ctx, ambulance.ID)
	if err != nil {
		return nil, nil, err
	}
	return call, ambulance, nil
}

// notifyAssignment texts both sides of the dispatch. Send failures are
// logged and never roll back the assignment.
func (s *dispatchService) notifyAssignment(ctx context.Context, call *models.EmergencyCall, unit *models.Ambulance, summary *models.AssignmentSummary) {
	s.sendSMS(ctx, unit.DriverPhone, fmt.Sprintf(
		"EMERGENCY DISPATCH: proceed to %.6f,%.6f (%s away). Patient contact: %s. https://maps.google.com/?q=%.6f,%.6f",
		*call.Latitude, *call.Longitude,
		utils.FormatDistance(summary.DistanceKM),
		call.CallerPhone,
		*call.Latitude, *call.Longitude,
	))

	if call.CallerPhone != "" {
		s.sendSMS(ctx, call.CallerPhone, fmt.Sprintf(
			"Ambulance %s is on the way, about %s out. Driver %s, %s.",
			unit.VehicleNumber,
			utils.FormatTravelTime(summary.ETAMinutes),
			unit.DriverName,
			unit.DriverPhone,
		))
	}
}

func (s *dispatchService) sendSMS(ctx context.Context, to, message string) {
	if s.smsProvider == nil || to == "" {
		return
	}
	if _, err := s.smsProvider.SendSMS(ctx, &sms.SMSRequest{To: to, Message: message}); err != nil {
		s.logger.WithError(err).WithField("to", to).Warn("failed to send dispatch SMS")
	}
}

// nearestUnit picks the closest unit by haversine distance; exact ties go
// to the lower vehicle number so repeated runs are deterministic.
func nearestUnit(units []*models.Ambulance, lat, lng float64) (*models.Ambulance, float64) {
	var best *models.Ambulance
	var bestDistance float64

	for _, unit := range units {
		distance := utils.CalculateDistance(lat, lng, unit.Latitude, unit.Longitude)
		switch {
		case best == nil || distance < bestDistance:
			best = unit
			bestDistance = distance
		case distance == bestDistance && unit.VehicleNumber < best.VehicleNumber:
			best = unit
		}
	}

	return best, bestDistance
}
