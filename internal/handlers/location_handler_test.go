package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/repositories/memory"
	"lifeline/internal/services"
	"lifeline/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocationRouter() (*gin.Engine, interfaces.CallRepository) {
	callRepo := memory.NewCallRepository()
	ambulanceRepo := memory.NewAmbulanceRepository()
	log := logger.NewLogger(&logger.Config{Level: "error"})
	callService := services.NewCallService("http://localhost:8080", callRepo, ambulanceRepo, nil, nil, nil, nil, log)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/location/submit", NewLocationHandler(callService).Submit)
	return router, callRepo
}

func postLocation(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/location/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

// A coordinate of exactly 0 is a real place and must bind; only a missing
// coordinate is a bad request.
func TestSubmitAcceptsZeroCoordinate(t *testing.T) {
	router, callRepo := newLocationRouter()

	call := &models.EmergencyCall{
		CallerPhone: "+919876543210",
		Status:      models.CallStatusInitiated,
		ShareToken:  "token-equator",
	}
	require.NoError(t, callRepo.Create(context.Background(), call))

	recorder := postLocation(router,
		`{"share_token":"token-equator","latitude":0,"longitude":75.9218}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	updated, err := callRepo.GetByID(context.Background(), call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusLocationShared, updated.Status)
	require.NotNil(t, updated.Latitude)
	assert.Zero(t, *updated.Latitude)
}

func TestSubmitRejectsMissingCoordinate(t *testing.T) {
	router, _ := newLocationRouter()

	recorder := postLocation(router,
		`{"share_token":"token-equator","longitude":75.9218}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
