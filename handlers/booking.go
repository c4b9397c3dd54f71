package handlers

import (
	"net/http"
	"strings"
	"time"

	"shutterbook/middleware"
	"shutterbook/models"
	"shutterbook/services/booking"
	"shutterbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxAvailabilityDays = 62

type BookingHandler struct {
	Availability booking.AvailabilityService
	Coordinator  booking.BookingCoordinator
	Location     *time.Location
}

func NewBookingHandler(availability booking.AvailabilityService, coordinator booking.BookingCoordinator, loc *time.Location) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{Availability: availability, Coordinator: coordinator, Location: loc}
}

type sessionTypeView struct {
	SessionType         models.SessionType `json:"sessionType"`
	DurationMinutes     int                `json:"durationMinutes"`
	BufferBeforeMinutes int                `json:"bufferBeforeMinutes"`
	BufferAfterMinutes  int                `json:"bufferAfterMinutes"`
}

// GetSessionTypes lists the bookable session types.
func (h *BookingHandler) GetSessionTypes(c *gin.Context) {
	profiles := h.Availability.ListSessionTypes()
	out := make([]sessionTypeView, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, sessionTypeView{
			SessionType:         p.SessionType,
			DurationMinutes:     int(p.Duration / time.Minute),
			BufferBeforeMinutes: int(p.BufferBefore / time.Minute),
			BufferAfterMinutes:  int(p.BufferAfter / time.Minute),
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessionTypes": out})
}

// GetAvailability handles GET /api/availability?from=&to=&sessionType=.
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	from, errFrom := time.ParseInLocation("2006-01-02", c.Query("from"), h.Location)
	to, errTo := time.ParseInLocation("2006-01-02", c.Query("to"), h.Location)
	if errFrom != nil || errTo != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "from and to must be dates in YYYY-MM-DD format", nil)
		return
	}
	if to.Sub(from) > maxAvailabilityDays*24*time.Hour {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "date range too long", gin.H{"maxDays": maxAvailabilityDays})
		return
	}
	sessionType := models.SessionType(strings.ToLower(strings.TrimSpace(c.Query("sessionType"))))
	if sessionType == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "sessionType is required", nil)
		return
	}

	slots, err := h.Availability.GetAvailability(c.Request.Context(), from, to, sessionType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// CreateBooking handles POST /api/bookings. The caller's identity comes from
// the token, never from the body.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "Malformed booking request", err.Error())
		return
	}
	req.UserID = c.GetString(middleware.UserIDKey)

	conf, err := h.Coordinator.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !conf.ConfirmationEmailSent {
		getLogger(c).Info("Booking created without confirmation email", zap.String("bookingID", conf.BookingID))
	}
	c.JSON(http.StatusCreated, conf)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Coordinator.GetBooking(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserIDKey))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type cancelInput struct {
	Reason string `json:"reason"`
}

// CancelBooking handles POST /api/bookings/:id/cancel. Staff may cancel any
// booking; clients only their own.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var in cancelInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid_request", "Malformed cancel request", err.Error())
			return
		}
	}
	owner := c.GetString(middleware.UserIDKey)
	if c.GetString(middleware.RoleKey) == utils.RoleStaff {
		owner = ""
	}

	b, err := h.Coordinator.CancelBooking(c.Request.Context(), c.Param("id"), owner, strings.TrimSpace(in.Reason))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
