package routes

import (
	"net/http"

	"lifeline/internal/handlers"
	"lifeline/pkg/logger"
	ws "lifeline/pkg/websocket"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	CallCenter *handlers.CallCenterHandler
	Ambulance  *handlers.AmbulanceHandler
	Location   *handlers.LocationHandler
	SMS        *handlers.SMSHandler
}

// Setup wires the whole HTTP surface onto the router.
func Setup(router *gin.Engine, h *Handlers, hub *ws.Hub, log *logger.Logger, version string) {
	api := router.Group("/api")
	{
		callcenter := api.Group("/callcenter")
		{
			callcenter.POST("/initiate-call", h.CallCenter.InitiateCall)
			callcenter.GET("/active-calls", h.CallCenter.ActiveCalls)
			callcenter.GET("/calls/:id", h.CallCenter.GetCall)
			callcenter.POST("/calls/:id/assign", h.CallCenter.AssignAmbulance)
			callcenter.POST("/calls/:id/complete", h.CallCenter.CompleteCall)
			callcenter.POST("/calls/:id/cancel", h.CallCenter.CancelCall)
		}

		ambulance := api.Group("/ambulance")
		{
			ambulance.POST("/register", h.Ambulance.Register)
			ambulance.POST("/update-location", h.Ambulance.UpdateLocation)
			ambulance.GET("", h.Ambulance.List)
			ambulance.GET("/:vehicle_number/assignment", h.Ambulance.GetAssignment)
			ambulance.POST("/mark-arrived", h.Ambulance.MarkArrived)
			ambulance.POST("/mark-completed", h.Ambulance.MarkCompleted)
		}

		api.POST("/location/submit", h.Location.Submit)

		// Inbound gateway webhook, no auth: Twilio posts form-encoded
		// From/Body fields here.
		api.POST("/sms/webhook", h.SMS.Webhook)
	}

	router.GET("/ws/dashboard", func(c *gin.Context) {
		ws.ServeWS(hub, log.Logger, c.Writer, c.Request)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	})
}
