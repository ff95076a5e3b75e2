package services

import (
	"context"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/utils"
	"lifeline/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AmbulanceService interface {
	RegisterAmbulance(ctx context.Context, request *models.RegisterAmbulanceRequest) (*models.Ambulance, error)
	UpdateLocation(ctx context.Context, request *models.UpdateLocationRequest) error
	GetAmbulance(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error)
	ListAmbulances(ctx context.Context) ([]*models.Ambulance, error)
	ListAvailable(ctx context.Context) ([]*models.Ambulance, error)
	GetActiveAssignment(ctx context.Context, vehicleNumber string) (*models.EmergencyCall, *models.Ambulance, error)
}

type ambulanceService struct {
	callLifecycle
}

func NewAmbulanceService(
	ambulanceRepo interfaces.AmbulanceRepository,
	callRepo interfaces.CallRepository,
	events EventPublisher,
	log *logger.Logger,
) AmbulanceService {
	return &ambulanceService{
		callLifecycle: callLifecycle{
			callRepo:      callRepo,
			ambulanceRepo: ambulanceRepo,
			events:        events,
			logger:        log,
		},
	}
}

func (s *ambulanceService) RegisterAmbulance(ctx context.Context, request *models.RegisterAmbulanceRequest) (*models.Ambulance, error) {
	if request.Latitude == nil || request.Longitude == nil ||
		!utils.IsValidCoordinates(*request.Latitude, *request.Longitude) {
		return nil, models.ErrInvalidCoordinates
	}
	if !utils.IsValidPhone(request.DriverPhone) {
		return nil, models.ErrInvalidPhone
	}

	ambulance := &models.Ambulance{
		VehicleNumber: request.VehicleNumber,
		DriverName:    request.DriverName,
		DriverPhone:   utils.NormalizePhone(request.DriverPhone),
		Latitude:      *request.Latitude,
		Longitude:     *request.Longitude,
		IsAvailable:   true,
	}

	if err := s.ambulanceRepo.Create(ctx, ambulance); err != nil {
		return nil, err
	}

	s.logger.WithField("vehicle_number", ambulance.VehicleNumber).Info("ambulance registered")
	s.publish(EventAmbulanceRegistered, ambulance)
	return ambulance, nil
}

func (s *ambulanceService) UpdateLocation(ctx context.Context, request *models.UpdateLocationRequest) error {
	if request.Latitude == nil || request.Longitude == nil ||
		!utils.IsValidCoordinates(*request.Latitude, *request.Longitude) {
		return models.ErrInvalidCoordinates
	}

	if err := s.ambulanceRepo.UpdateLocation(ctx, request.VehicleNumber, *request.Latitude, *request.Longitude); err != nil {
		return err
	}

	s.publish(EventAmbulanceLocation, request)
	return nil
}

func (s *ambulanceService) GetAmbulance(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	return s.ambulanceRepo.GetByID(ctx, id)
}

func (s *ambulanceService) ListAmbulances(ctx context.Context) ([]*models.Ambulance, error) {
	return s.ambulanceRepo.List(ctx)
}

func (s *ambulanceService) ListAvailable(ctx context.Context) ([]*models.Ambulance, error) {
	return s.ambulanceRepo.ListAvailable(ctx)
}

// GetActiveAssignment returns the call a unit is currently working, for the
// driver app's assignment screen.
func (s *ambulanceService) GetActiveAssignment(ctx context.Context, vehicleNumber string) (*models.EmergencyCall, *models.Ambulance, error) {
	ambulance, err := s.ambulanceRepo.GetByVehicleNumber(ctx, vehicleNumber)
	if err != nil {
		return nil, nil, err
	}

	call, err := s.callRepo.GetActiveAssignment(ctx, ambulance.ID)
	if err != nil {
		return nil, ambulance, err
	}
	return call, ambulance, nil
}
