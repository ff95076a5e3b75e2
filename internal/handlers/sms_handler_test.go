package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSMSLocationService struct {
	reply string
	err   error
	from  string
	body  string
}

func (s *stubSMSLocationService) IssueCode(context.Context, *models.EmergencyCall) error { return nil }
func (s *stubSMSLocationService) CodeInstruction(*models.EmergencyCall) string           { return "" }
func (s *stubSMSLocationService) MatchInboundReply(context.Context, string, string) (*models.EmergencyCall, error) {
	return nil, models.ErrCallNotFound
}
func (s *stubSMSLocationService) ProcessLocationReply(context.Context, string, string) (*services.LocationReplyResult, error) {
	return nil, models.ErrCallNotFound
}
func (s *stubSMSLocationService) HandleInboundText(_ context.Context, from, body string) (string, error) {
	s.from = from
	s.body = body
	return s.reply, s.err
}

func postWebhook(t *testing.T, handler *SMSHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/sms/webhook", handler.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/api/sms/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestWebhookRespondsWithTwiML(t *testing.T) {
	stub := &stubSMSLocationService{reply: "Location received. Ambulance KA-17-A-1001 is on the way."}
	handler := NewSMSHandler(stub, logger.NewLogger(&logger.Config{Level: "error"}))

	recorder := postWebhook(t, handler, url.Values{
		"From": {"+919876543210"},
		"Body": {"LOCATION 14.4644, 75.9218"},
	})

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/xml", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Body.String(), "<Response><Message>")
	assert.Contains(t, recorder.Body.String(), "KA-17-A-1001")
	assert.Equal(t, "+919876543210", stub.from)
	assert.Equal(t, "LOCATION 14.4644, 75.9218", stub.body)
}

func TestWebhookRequiresSender(t *testing.T) {
	handler := NewSMSHandler(&stubSMSLocationService{}, logger.NewLogger(&logger.Config{Level: "error"}))

	recorder := postWebhook(t, handler, url.Values{"Body": {"HELP"}})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestWebhookNeverDropsOnServiceError(t *testing.T) {
	stub := &stubSMSLocationService{err: context.DeadlineExceeded}
	handler := NewSMSHandler(stub, logger.NewLogger(&logger.Config{Level: "error"}))

	recorder := postWebhook(t, handler, url.Values{
		"From": {"+919876543210"},
		"Body": {"HELP"},
	})

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "could not process")
}

func TestTwiMLEscapesMessage(t *testing.T) {
	out := twiml(`reply with <code> & coordinates`)
	assert.Contains(t, out, "&lt;code&gt;")
	assert.Contains(t, out, "&amp;")
	assert.NotContains(t, out, "<code>")
}
