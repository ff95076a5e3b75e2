package handlers

import (
	"errors"

	"lifeline/internal/models"
	"lifeline/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps domain errors onto HTTP statuses. Anything not
// recognized is an infrastructure failure and comes back as a 500 without
// leaking details.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrCallNotFound),
		errors.Is(err, models.ErrAmbulanceNotFound):
		utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, models.ErrDuplicateVehicle),
		errors.Is(err, models.ErrNoAmbulancesAvailable),
		errors.Is(err, models.ErrAmbulanceNotAvailable),
		errors.Is(err, models.ErrCallNotAssigned),
		models.IsInvalidTransition(err):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, models.ErrInvalidCoordinates),
		errors.Is(err, models.ErrInvalidPhone),
		errors.Is(err, models.ErrLocationMissing),
		errors.Is(err, models.ErrCodeExpired),
		errors.Is(err, models.ErrNoContact):
		utils.BadRequestResponse(c, err.Error())
	default:
		utils.InternalServerErrorResponse(c, "Something went wrong")
	}
}
