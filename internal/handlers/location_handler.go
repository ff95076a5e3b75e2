package handlers

import (
	"lifeline/internal/models"
	"lifeline/internal/services"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	callService services.CallService
}

func NewLocationHandler(callService services.CallService) *LocationHandler {
	return &LocationHandler{callService: callService}
}

// Submit records a location shared through the web link or entered
// manually by a dispatcher.
func (h *LocationHandler) Submit(c *gin.Context) {
	var request models.RecordLocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	call, err := h.callService.RecordLocation(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Location recorded", call)
}
