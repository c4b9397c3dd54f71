package handlers

import (
	"errors"
	"net/http"

	"shutterbook/services/booking"
	"shutterbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondServiceError maps scheduler errors to HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "Booking request is invalid", verr.Fields)
	case errors.Is(err, booking.ErrInvalidRequest):
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, booking.ErrUnknownSessionType):
		utils.JSONError(c, http.StatusUnprocessableEntity, "unknown_session_type", "Unknown session type", nil)
	case errors.Is(err, booking.ErrSlotNoLongerAvailable):
		utils.JSONError(c, http.StatusConflict, "slot_unavailable", "That slot was just booked. Please pick another time.", nil)
	case errors.Is(err, booking.ErrInvalidTransition):
		utils.JSONError(c, http.StatusConflict, "invalid_transition", "Booking cannot change to that status", nil)
	case errors.Is(err, booking.ErrBookingNotFound):
		utils.JSONError(c, http.StatusNotFound, "not_found", "Booking not found", nil)
	case errors.Is(err, booking.ErrBlockNotFound):
		utils.JSONError(c, http.StatusNotFound, "not_found", "Block not found", nil)
	case errors.Is(err, booking.ErrStoreUnavailable):
		getLogger(c).Error("Calendar store unavailable", zap.Error(err))
		c.Header("Retry-After", "5")
		utils.JSONError(c, http.StatusServiceUnavailable, "store_unavailable", "Calendar temporarily unavailable, please retry", nil)
	default:
		getLogger(c).Error("Unhandled service error", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Internal Server Error", nil)
	}
}
