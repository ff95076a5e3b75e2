package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/repositories/memory"
	"lifeline/pkg/logger"
	"lifeline/pkg/sms"

	"github.com/stretchr/testify/require"
)

type fakeSMSProvider struct {
	mu   sync.Mutex
	sent []sms.SMSRequest
	fail bool
}

func (f *fakeSMSProvider) SendSMS(_ context.Context, req *sms.SMSRequest) (*sms.SMSResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, context.DeadlineExceeded
	}
	f.sent = append(f.sent, *req)
	return &sms.SMSResponse{MessageID: "msg-1", Status: "sent", Provider: "fake"}, nil
}

func (f *fakeSMSProvider) GetProviderName() string { return "fake" }

func (f *fakeSMSProvider) messages() []sms.SMSRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sms.SMSRequest, len(f.sent))
	copy(out, f.sent)
	return out
}

type capturedEvent struct {
	Name string
	Data interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (f *fakePublisher) Publish(event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, capturedEvent{Name: event, Data: data})
}

func (f *fakePublisher) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		names = append(names, ev.Name)
	}
	return names
}

func f64(v float64) *float64 { return &v }

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: "error", Format: "text"})
}

func testProtocolConfig() *config.ProtocolConfig {
	return &config.ProtocolConfig{
		CodePrefix:        "ERS-LOC-",
		CodeLength:        6,
		CodeTTL:           30 * time.Minute,
		ReplyKeyword:      "LOCATION",
		EmergencyKeywords: []string{"HELP", "SOS", "EMERGENCY", "108"},
	}
}

func testDispatchConfig() *config.DispatchConfig {
	return &config.DispatchConfig{AvgSpeedKMH: 40, AssignMaxRetries: 3}
}

type fixture struct {
	callRepo      interfaces.CallRepository
	ambulanceRepo interfaces.AmbulanceRepository
	smsProvider   *fakeSMSProvider
	events        *fakePublisher

	ambulance AmbulanceService
	dispatch  DispatchService
	sms       SMSLocationService
	calls     CallService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		callRepo:      memory.NewCallRepository(),
		ambulanceRepo: memory.NewAmbulanceRepository(),
		smsProvider:   &fakeSMSProvider{},
		events:        &fakePublisher{},
	}

	log := testLogger()
	f.ambulance = NewAmbulanceService(f.ambulanceRepo, f.callRepo, f.events, log)
	f.dispatch = NewDispatchService(testDispatchConfig(), f.callRepo, f.ambulanceRepo, f.smsProvider, f.events, log)
	f.sms = NewSMSLocationService(testProtocolConfig(), testDispatchConfig(), f.callRepo, f.ambulanceRepo, nil, f.dispatch, f.events, log)
	f.calls = NewCallService("http://localhost:8080", f.callRepo, f.ambulanceRepo, f.smsProvider, nil, f.sms, f.events, log)
	return f
}

func (f *fixture) registerAmbulance(t *testing.T, vehicleNumber string, lat, lng float64) *models.Ambulance {
	t.Helper()
	ambulance, err := f.ambulance.RegisterAmbulance(context.Background(), &models.RegisterAmbulanceRequest{
		VehicleNumber: vehicleNumber,
		DriverName:    "Driver " + vehicleNumber,
		DriverPhone:   "+919876500001",
		Latitude:      f64(lat),
		Longitude:     f64(lng),
	})
	require.NoError(t, err)
	return ambulance
}

func (f *fixture) initiateCall(t *testing.T, phone string) *models.InitiateCallResponse {
	t.Helper()
	response, err := f.calls.InitiateCall(context.Background(), &models.InitiateCallRequest{
		CallerPhone:  phone,
		Connectivity: models.ConnectivityOnline,
	})
	require.NoError(t, err)
	return response
}

func (f *fixture) callWithLocation(t *testing.T, phone string, lat, lng float64) *models.EmergencyCall {
	t.Helper()
	response := f.initiateCall(t, phone)
	call, err := f.calls.RecordLocation(context.Background(), &models.RecordLocationRequest{
		ShareToken: response.ShareToken,
		Latitude:   f64(lat),
		Longitude:  f64(lng),
	})
	require.NoError(t, err)
	return call
}
