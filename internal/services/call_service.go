package services

import (
	"context"
	"fmt"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/utils"
	"lifeline/pkg/geocode"
	"lifeline/pkg/logger"
	"lifeline/pkg/sms"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CallService interface {
	InitiateCall(ctx context.Context, request *models.InitiateCallRequest) (*models.InitiateCallResponse, error)
	RecordLocation(ctx context.Context, request *models.RecordLocationRequest) (*models.EmergencyCall, error)
	MarkPickup(ctx context.Context, callID primitive.ObjectID) (*models.EmergencyCall, error)
	Complete(ctx context.Context, callID primitive.ObjectID) (*models.EmergencyCall, error)
	Cancel(ctx context.Context, callID primitive.ObjectID) (*models.EmergencyCall, error)
	GetCall(ctx context.Context, callID primitive.ObjectID) (*models.EmergencyCall, error)
	ActiveCalls(ctx context.Context) ([]*models.EmergencyCall, error)
}

type callService struct {
	callLifecycle
	smsProvider sms.SMSProvider
	smsLocation SMSLocationService
	baseURL     string
}

func NewCallService(
	baseURL string,
	callRepo interfaces.CallRepository,
	ambulanceRepo interfaces.AmbulanceRepository,
	smsProvider sms.SMSProvider,
	geocoder geocode.Geocoder,
	smsLocation SMSLocationService,
	events EventPublisher,
	log *logger.Logger,
) CallService {
	return &callService{
		callLifecycle: callLifecycle{
			callRepo:      callRepo,
			ambulanceRepo: ambulanceRepo,
			geocoder:      geocoder,
			events:        events,
			logger:        log,
		},
		smsProvider: smsProvider,
		smsLocation: smsLocation,
		baseURL:     baseURL,
	}
}

// InitiateCall registers an incoming emergency call. Every call starts in
// initiated with a fresh share token; how the caller is asked for their
// location depends only on the connectivity hint and whether the link SMS
// goes through.
func (s *callService) InitiateCall(ctx context.Context, request *models.InitiateCallRequest) (*models.InitiateCallResponse, error) {
	if !utils.IsValidPhone(request.CallerPhone) {
		return nil, models.ErrInvalidPhone
	}

	connectivity := request.Connectivity
	if connectivity == "" {
		connectivity = models.ConnectivityUnknown
	}

	call := &models.EmergencyCall{
		CallerPhone:  utils.NormalizePhone(request.CallerPhone),
		Status:       models.CallStatusInitiated,
		ShareToken:   uuid.NewString(),
		Connectivity: connectivity,
	}

	if err := s.callRepo.Create(ctx, call); err != nil {
		return nil, err
	}
	s.publish(EventCallInitiated, call)
	s.logger.WithCallID(call.ID.Hex()).WithField("caller", call.CallerPhone).Info("emergency call initiated")

	response := &models.InitiateCallResponse{
		CallID:           call.ID,
		ShareToken:       call.ShareToken,
		LocationShareURL: fmt.Sprintf("%s/location/%s", s.baseURL, call.ShareToken),
	}

	if connectivity == models.ConnectivityOffline {
		s.startSMSProtocol(ctx, call, response)
		return response, nil
	}

	if err := s.sendShareLink(ctx, call, response.LocationShareURL); err != nil {
		s.logger.WithCallID(call.ID.Hex()).WithError(err).
			Warn("share link SMS failed, falling back to SMS location protocol")
		s.startSMSProtocol(ctx, call, response)
		return response, nil
	}

	response.SMSSent = true
	return response, nil
}

func (s *callService) RecordLocation(ctx context.Context, request *models.RecordLocationRequest) (*models.EmergencyCall, error) {
	if request.Latitude == nil || request.Longitude == nil {
		return nil, models.ErrInvalidCoordinates
	}
	lat, lng := *request.Latitude, *request.Longitude
	if !utils.IsValidCoordinates(lat, lng) {
		return nil, models.ErrInvalidCoordinates
	}

	call, err := s.resolveCall(ctx, request)
	if err != nil {
		return nil, err
	}

	method := request.Method
	if method == "" {
		if request.ShareToken != "" {
			method = models.LocationMethodWeb
		} else {
			method = models.LocationMethodManual
		}
	}

	if err := s.applyLocation(ctx, call, lat, lng, method); err != nil {
		return nil, err
	}
	return call, nil
}

// MarkPickup stamps the moment the crew reached the patient. It does not
// change status; pickup happens inside assigned.
func (s *callService) MarkPickup(ctx context.Context, callID primitive.ObjectID) (*models.EmergencyCall, error) {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call.Status != models.CallStatusAssigned {
		return nil, models.ErrCallNotAssigned
	}

	now := time.Now()
	call.PickupAt = &now
	if err := s.callRepo.Update(ctx, call); err != nil {
		return nil, err
	}

	s.publish(EventCallPickup, call)
	return call, nil
}

func (s *callService) Complete(ctx context.Context, callID primitive.ObjectID) (*models.EmergencyCall, error) {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if err := s.complete(ctx, call); err != nil {
		return nil, err
	}
	return call, nil
}

func (s *callService) Cancel(ctx context.Context, callID primitive.ObjectID) (*models.EmergencyCall, error) {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if err := s.cancel(ctx, call); err != nil {
		return nil, err
	}
	return call, nil
}

func (s *callService) GetCall(ctx context.Context, callID primitive.ObjectID) (*models.EmergencyCall, error) {
	return s.callRepo.GetByID(ctx, callID)
}

func (s *callService) ActiveCalls(ctx context.Context) ([]*models.EmergencyCall, error) {
	return s.callRepo.ListActive(ctx)
}

func (s *callService) resolveCall(ctx context.Context, request *models.RecordLocationRequest) (*models.EmergencyCall, error) {
	if request.ShareToken != "" {
		return s.callRepo.GetByShareToken(ctx, request.ShareToken)
	}
	if !request.CallID.IsZero() {
		return s.callRepo.GetByID(ctx, request.CallID)
	}
	return nil, models.ErrCallNotFound
}

func (s *callService) sendShareLink(ctx context.Context, call *models.EmergencyCall, shareURL string) error {
	if s.smsProvider == nil {
		return fmt.Errorf("no SMS provider configured")
	}
	_, err := s.smsProvider.SendSMS(ctx, &sms.SMSRequest{
		To:      call.CallerPhone,
		Message: fmt.Sprintf("EMERGENCY: tap to share your location with the ambulance service: %s", shareURL),
	})
	return err
}

func (s *callService) startSMSProtocol(ctx context.Context, call *models.EmergencyCall, response *models.InitiateCallResponse) {
	if err := s.smsLocation.IssueCode(ctx, call); err != nil {
		s.logger.WithCallID(call.ID.Hex()).WithError(err).Error("failed to start SMS location protocol")
		return
	}
	response.SMSProtocolInitiated = true

	if s.smsProvider == nil {
		return
	}
	if _, err := s.smsProvider.SendSMS(ctx, &sms.SMSRequest{
		To:      call.CallerPhone,
		Message: s.smsLocation.CodeInstruction(call),
	}); err != nil {
		s.logger.WithCallID(call.ID.Hex()).WithError(err).Warn("failed to send location code instruction")
	}
}
