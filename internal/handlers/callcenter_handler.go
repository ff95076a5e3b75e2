package handlers

import (
	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CallCenterHandler struct {
	callService     services.CallService
	dispatchService services.DispatchService
}

func NewCallCenterHandler(callService services.CallService, dispatchService services.DispatchService) *CallCenterHandler {
	return &CallCenterHandler{
		callService:     callService,
		dispatchService: dispatchService,
	}
}

// InitiateCall registers an incoming emergency call
func (h *CallCenterHandler) InitiateCall(c *gin.Context) {
	var request models.InitiateCallRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	response, err := h.callService.InitiateCall(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Emergency call initiated", response)
}

// ActiveCalls lists all calls still in flight for the dashboard
func (h *CallCenterHandler) ActiveCalls(c *gin.Context) {
	calls, err := h.callService.ActiveCalls(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Active calls retrieved", calls)
}

// GetCall retrieves one call by ID
func (h *CallCenterHandler) GetCall(c *gin.Context) {
	callID, ok := h.callIDParam(c)
	if !ok {
		return
	}

	call, err := h.callService.GetCall(c.Request.Context(), callID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Call retrieved", call)
}

// AssignAmbulance dispatches the nearest available unit to the call
func (h *CallCenterHandler) AssignAmbulance(c *gin.Context) {
	callID, ok := h.callIDParam(c)
	if !ok {
		return
	}

	summary, err := h.dispatchService.AssignNearest(c.Request.Context(), callID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ambulance assigned", summary)
}

// CompleteCall closes out a call from the dispatcher side
func (h *CallCenterHandler) CompleteCall(c *gin.Context) {
	callID, ok := h.callIDParam(c)
	if !ok {
		return
	}

	call, err := h.callService.Complete(c.Request.Context(), callID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Call completed", call)
}

// CancelCall cancels an active call
func (h *CallCenterHandler) CancelCall(c *gin.Context) {
	callID, ok := h.callIDParam(c)
	if !ok {
		return
	}

	call, err := h.callService.Cancel(c.Request.Context(), callID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Call cancelled", call)
}

func (h *CallCenterHandler) callIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	callID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid call ID")
		return primitive.NilObjectID, false
	}
	return callID, true
}
