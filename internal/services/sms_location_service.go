package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/location"
	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/utils"
	"lifeline/pkg/geocode"
	"lifeline/pkg/logger"

	"github.com/google/uuid"
)

const codeIssueMaxAttempts = 5

// LocationReplyResult is the outcome of processing one inbound location
// reply. Extraction failure is a normal outcome, not an error.
type LocationReplyResult struct {
	Call       *models.EmergencyCall
	Extracted  bool
	Reason     string
	Assignment *models.AssignmentSummary
}

type SMSLocationService interface {
	// IssueCode allocates a unique location code on the call and moves it
	// to location_requested. It mutates and persists the call.
	IssueCode(ctx context.Context, call *models.EmergencyCall) error

	// CodeInstruction is the message telling the caller how to reply.
	CodeInstruction(call *models.EmergencyCall) string

	// MatchInboundReply finds the call an inbound text belongs to: by code
	// if the body carries one, otherwise the sender's most recent call
	// still waiting for a location.
	MatchInboundReply(ctx context.Context, from, body string) (*models.EmergencyCall, error)

	// ProcessLocationReply matches the reply, checks code expiry, and runs
	// the extractor. On success the location is recorded and auto-dispatch
	// is attempted.
	ProcessLocationReply(ctx context.Context, from, body string) (*LocationReplyResult, error)

	// HandleInboundText is the webhook entry point. It returns the reply
	// text to send back to the sender.
	HandleInboundText(ctx context.Context, from, body string) (string, error)
}

type smsLocationService struct {
	callLifecycle
	extractor   *location.Extractor
	protocol    *config.ProtocolConfig
	dispatchCfg *config.DispatchConfig
	dispatch    DispatchService
	codePattern *regexp.Regexp
}

func NewSMSLocationService(
	protocol *config.ProtocolConfig,
	dispatchCfg *config.DispatchConfig,
	callRepo interfaces.CallRepository,
	ambulanceRepo interfaces.AmbulanceRepository,
	geocoder geocode.Geocoder,
	dispatch DispatchService,
	events EventPublisher,
	log *logger.Logger,
) SMSLocationService {
	pattern := regexp.MustCompile(
		regexp.QuoteMeta(protocol.CodePrefix) + fmt.Sprintf(`[A-Z0-9]{%d}`, protocol.CodeLength))

	return &smsLocationService{
		callLifecycle: callLifecycle{
			callRepo:      callRepo,
			ambulanceRepo: ambulanceRepo,
			geocoder:      geocoder,
			events:        events,
			logger:        log,
		},
		extractor:   location.NewExtractor(),
		protocol:    protocol,
		dispatchCfg: dispatchCfg,
		dispatch:    dispatch,
		codePattern: pattern,
	}
}

func (s *smsLocationService) IssueCode(ctx context.Context, call *models.EmergencyCall) error {
	if call.CallerPhone == "" {
		return models.ErrNoContact
	}
	if call.Status == models.CallStatusInitiated {
		if err := call.Transition(models.CallStatusLocationRequested); err != nil {
			return err
		}
	} else if call.Status != models.CallStatusLocationRequested {
		return &models.InvalidTransitionError{From: call.Status, To: models.CallStatusLocationRequested}
	}

	call.Connectivity = models.ConnectivityOffline
	expiry := time.Now().Add(s.protocol.CodeTTL)
	call.SMSCodeExpiry = &expiry

	// The repository enforces code uniqueness; a collision surfaces as
	// ErrDuplicateCode and we simply roll a new code.
	var lastErr error
	for attempt := 0; attempt < codeIssueMaxAttempts; attempt++ {
		call.SMSLocationCode = s.protocol.CodePrefix + utils.GenerateCode(s.protocol.CodeLength)

		err := s.callRepo.UpdateClaimingCode(ctx, call)
		if err == nil {
			s.logger.WithCallID(call.ID.Hex()).Info("location code issued")
			return nil
		}
		if !errors.Is(err, models.ErrDuplicateCode) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("failed to allocate a unique location code: %w", lastErr)
}

func (s *smsLocationService) CodeInstruction(call *models.EmergencyCall) string {
	return fmt.Sprintf(
		"EMERGENCY: we need your location. Reply with your code and coordinates, e.g.\n%s 14.4644, 75.9218\nor paste a maps link. Your code: %s",
		call.SMSLocationCode, call.SMSLocationCode)
}

func (s *smsLocationService) MatchInboundReply(ctx context.Context, from, body string) (*models.EmergencyCall, error) {
	if code := s.codePattern.FindString(strings.ToUpper(body)); code != "" {
		call, err := s.callRepo.GetBySMSCode(ctx, code, models.PendingLocationStatuses)
		if err == nil {
			return call, nil
		}
		if !errors.Is(err, models.ErrCallNotFound) {
			return nil, err
		}
		// Stale or mistyped code; fall through to the sender lookup.
	}

	return s.callRepo.GetLatestByCallerPhone(ctx, from, models.PendingLocationStatuses)
}

func (s *smsLocationService) ProcessLocationReply(ctx context.Context, from, body string) (*LocationReplyResult, error) {
	call, err := s.MatchInboundReply(ctx, from, body)
	if err != nil {
		return nil, err
	}

	if call.SMSLocationCode != "" && call.CodeExpired(time.Now()) {
		return nil, models.ErrCodeExpired
	}

	extracted := s.extractor.Extract(body)
	if !extracted.OK {
		return &LocationReplyResult{Call: call, Reason: extracted.Reason}, nil
	}

	if err := s.applyLocation(ctx, call, extracted.Latitude, extracted.Longitude, models.LocationMethodSMS); err != nil {
		return nil, err
	}

	result := &LocationReplyResult{Call: call, Extracted: true}
	if s.dispatch != nil {
		summary, err := s.dispatch.AssignNearest(ctx, call.ID)
		if err != nil {
			s.logger.WithCallID(call.ID.Hex()).WithError(err).Warn("auto-dispatch after SMS location failed")
		} else {
			result.Assignment = summary
		}
	}

	return result, nil
}

func (s *smsLocationService) HandleInboundText(ctx context.Context, from, body string) (string, error) {
	from = utils.NormalizePhone(from)
	trimmed := strings.ToUpper(strings.TrimSpace(body))
	upper := strings.ToUpper(body)

	switch trimmed {
	case "MENU", "INFO":
		return s.menuText(), nil
	case "STATUS":
		return s.handleStatus(ctx, from)
	case "CANCEL":
		return s.handleCancel(ctx, from)
	}

	if strings.Contains(upper, strings.ToUpper(s.protocol.ReplyKeyword)) || s.codePattern.MatchString(upper) {
		return s.handleLocationReply(ctx, from, body)
	}

	for _, keyword := range s.protocol.EmergencyKeywords {
		if strings.Contains(upper, strings.ToUpper(keyword)) {
			return s.startEmergency(ctx, from, body)
		}
	}

	return s.menuText(), nil
}

func (s *smsLocationService) handleLocationReply(ctx context.Context, from, body string) (string, error) {
	result, err := s.ProcessLocationReply(ctx, from, body)
	switch {
	case errors.Is(err, models.ErrCallNotFound):
		return "No active emergency is waiting for your location. Text HELP to report one.", nil
	case errors.Is(err, models.ErrCodeExpired):
		return "Your location code has expired. Text HELP to request a new one.", nil
	case err != nil:
		return "", err
	}

	if !result.Extracted {
		return fmt.Sprintf(
			"Could not read a location from your message. Reply like:\n%s 14.4644, 75.9218\nor paste a maps link.",
			s.protocol.ReplyKeyword), nil
	}

	return s.assignmentReply(result.Assignment), nil
}

func (s *smsLocationService) startEmergency(ctx context.Context, from, body string) (string, error) {
	call := &models.EmergencyCall{
		CallerPhone:  from,
		Status:       models.CallStatusInitiated,
		ShareToken:   uuid.NewString(),
		Connectivity: models.ConnectivityOffline,
	}
	if err := s.callRepo.Create(ctx, call); err != nil {
		return "", err
	}
	s.publish(EventCallInitiated, call)
	s.logger.WithCallID(call.ID.Hex()).WithField("caller", from).Info("emergency reported via SMS")

	// The report itself may already carry a location.
	if extracted := s.extractor.Extract(body); extracted.OK {
		if err := s.applyLocation(ctx, call, extracted.Latitude, extracted.Longitude, models.LocationMethodSMS); err != nil {
			return "", err
		}
		var summary *models.AssignmentSummary
		if s.dispatch != nil {
			assigned, err := s.dispatch.AssignNearest(ctx, call.ID)
			if err != nil {
				s.logger.WithCallID(call.ID.Hex()).WithError(err).Warn("auto-dispatch for SMS emergency failed")
			} else {
				summary = assigned
			}
		}
		return s.assignmentReply(summary), nil
	}

	if err := s.IssueCode(ctx, call); err != nil {
		return "", err
	}
	return s.CodeInstruction(call), nil
}

func (s *smsLocationService) handleStatus(ctx context.Context, from string) (string, error) {
	// STATUS also covers calls still waiting on the code protocol, which
	// CANCEL deliberately does not.
	statuses := append([]models.CallStatus{models.CallStatusLocationRequested}, models.ActiveCallStatuses...)
	call, err := s.callRepo.GetLatestByCallerPhone(ctx, from, statuses)
	if errors.Is(err, models.ErrCallNotFound) {
		return "You have no active emergency. Text HELP to report one.", nil
	}
	if err != nil {
		return "", err
	}

	switch call.Status {
	case models.CallStatusAssigned:
		if call.AssignedAmbulanceID != nil {
			if unit, err := s.ambulanceRepo.GetByID(ctx, *call.AssignedAmbulanceID); err == nil {
				if call.HasLocation() {
					distance := utils.CalculateDistance(*call.Latitude, *call.Longitude, unit.Latitude, unit.Longitude)
					eta := utils.EstimateETAMinutes(distance, s.dispatchCfg.AvgSpeedKMH)
					return fmt.Sprintf("Ambulance %s is about %s away. Driver %s, %s.",
						unit.VehicleNumber, utils.FormatTravelTime(eta), unit.DriverName, unit.DriverPhone), nil
				}
				return fmt.Sprintf("Ambulance %s is assigned to you. Driver %s, %s.",
					unit.VehicleNumber, unit.DriverName, unit.DriverPhone), nil
			}
		}
		return "An ambulance is assigned and on the way.", nil
	case models.CallStatusLocationShared:
		return "Your location is recorded. A dispatcher is assigning an ambulance.", nil
	default:
		return "Your emergency is registered. We are waiting for your location.", nil
	}
}

func (s *smsLocationService) handleCancel(ctx context.Context, from string) (string, error) {
	call, err := s.callRepo.GetLatestByCallerPhone(ctx, from, models.ActiveCallStatuses)
	if errors.Is(err, models.ErrCallNotFound) {
		return "You have no active emergency to cancel.", nil
	}
	if err != nil {
		return "", err
	}

	if err := s.cancel(ctx, call); err != nil {
		if models.IsInvalidTransition(err) {
			return "Your emergency can no longer be cancelled by SMS. Call the control room.", nil
		}
		return "", err
	}

	s.logger.WithCallID(call.ID.Hex()).Info("call cancelled via SMS")
	return "Your emergency has been cancelled. Text HELP if you need an ambulance again.", nil
}

func (s *smsLocationService) assignmentReply(summary *models.AssignmentSummary) string {
	if summary == nil {
		return "Location received. A dispatcher is arranging an ambulance for you."
	}
	return fmt.Sprintf("Location received. Ambulance %s is on the way, about %s out. Driver %s, %s.",
		summary.VehicleNumber,
		utils.FormatTravelTime(summary.ETAMinutes),
		summary.DriverName,
		summary.DriverPhone)
}

func (s *smsLocationService) menuText() string {
	return fmt.Sprintf(
		"Lifeline emergency service.\nHELP - report an emergency\n%s <coordinates or maps link> - share your location\nSTATUS - check your emergency\nCANCEL - cancel your emergency",
		s.protocol.ReplyKeyword)
}
