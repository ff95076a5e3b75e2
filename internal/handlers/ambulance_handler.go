package handlers

import (
	"errors"

	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
)

type AmbulanceHandler struct {
	ambulanceService services.AmbulanceService
	dispatchService  services.DispatchService
}

func NewAmbulanceHandler(ambulanceService services.AmbulanceService, dispatchService services.DispatchService) *AmbulanceHandler {
	return &AmbulanceHandler{
		ambulanceService: ambulanceService,
		dispatchService:  dispatchService,
	}
}

// Register adds a new ambulance to the fleet
func (h *AmbulanceHandler) Register(c *gin.Context) {
	var request models.RegisterAmbulanceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	ambulance, err := h.ambulanceService.RegisterAmbulance(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ambulance registered", ambulance)
}

// UpdateLocation records a driver's position ping
func (h *AmbulanceHandler) UpdateLocation(c *gin.Context) {
	var request models.UpdateLocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.ambulanceService.UpdateLocation(c.Request.Context(), &request); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Location updated", nil)
}

// List returns the whole fleet
func (h *AmbulanceHandler) List(c *gin.Context) {
	ambulances, err := h.ambulanceService.ListAmbulances(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ambulances retrieved", ambulances)
}

// GetAssignment returns the call a unit is currently working
func (h *AmbulanceHandler) GetAssignment(c *gin.Context) {
	vehicleNumber := c.Param("vehicle_number")

	call, ambulance, err := h.ambulanceService.GetActiveAssignment(c.Request.Context(), vehicleNumber)
	if err != nil {
		if errors.Is(err, models.ErrCallNotFound) {
			utils.SuccessResponse(c, "No active assignment", gin.H{"ambulance": ambulance, "call": nil})
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Active assignment retrieved", gin.H{"ambulance": ambulance, "call": call})
}

type driverActionRequest struct {
	VehicleNumber string `json:"vehicle_number" binding:"required"`
}

// MarkArrived records that the crew reached the patient
func (h *AmbulanceHandler) MarkArrived(c *gin.Context) {
	var request driverActionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	arrived, err := h.dispatchService.MarkArrived(c.Request.Context(), request.VehicleNumber)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !arrived {
		utils.NotFoundResponse(c, "No active call for this vehicle")
		return
	}

	utils.SuccessResponse(c, "Arrival recorded", nil)
}

// MarkCompleted closes the unit's active call and frees the unit
func (h *AmbulanceHandler) MarkCompleted(c *gin.Context) {
	var request driverActionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	completed, err := h.dispatchService.CompleteCall(c.Request.Context(), request.VehicleNumber)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !completed {
		utils.NotFoundResponse(c, "No active call for this vehicle")
		return
	}

	utils.SuccessResponse(c, "Call completed", nil)
}
