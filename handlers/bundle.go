package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Scheduling endpoints
	GetSessionTypesHandler gin.HandlerFunc
	GetAvailabilityHandler gin.HandlerFunc

	// Booking endpoints
	CreateBookingHandler gin.HandlerFunc
	GetBookingHandler    gin.HandlerFunc
	CancelBookingHandler gin.HandlerFunc

	// Admin endpoints
	CreateBlockHandler gin.HandlerFunc
	RemoveBlockHandler gin.HandlerFunc

	// Advisory endpoints
	GetWeatherHandler    gin.HandlerFunc
	GetSuggestionHandler gin.HandlerFunc

	// Health endpoint
	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle wires the handler structs into a bundle.
func NewHandlerBundle(b *BookingHandler, a *AdminHandler, adv *AdvisoryHandler, health gin.HandlerFunc) *HandlerBundle {
	return &HandlerBundle{
		GetSessionTypesHandler: b.GetSessionTypes,
		GetAvailabilityHandler: b.GetAvailability,
		CreateBookingHandler:   b.CreateBooking,
		GetBookingHandler:      b.GetBooking,
		CancelBookingHandler:   b.CancelBooking,
		CreateBlockHandler:     a.CreateBlockHandler,
		RemoveBlockHandler:     a.RemoveBlockHandler,
		GetWeatherHandler:      adv.GetWeatherHandler,
		GetSuggestionHandler:   adv.GetSuggestionHandler,
		HealthHandler:          health,
	}
}
