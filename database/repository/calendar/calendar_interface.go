package calendarRepo

import (
	"context"
	"errors"
	"time"

	"shutterbook/models"
)

var (
	// ErrReservationConflict is returned by ReserveIfFree when the buffered
	// interval overlaps a confirmed booking or an active block.
	ErrReservationConflict = errors.New("calendar: reservation conflicts with existing busy interval")
	ErrNotFound            = errors.New("calendar: record not found")
	// ErrStaleStatus is returned when a conditional status update finds the
	// booking in a different status than expected.
	ErrStaleStatus = errors.New("calendar: booking status changed concurrently")
)

// CalendarStore is the durable record of busy time per resource.
//
// Busy intervals of bookings are their buffered intervals, so a candidate's
// buffered interval is checked against the buffered intervals of existing
// bookings and against blocks.
type CalendarStore interface {
	ReadBusyIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]models.BusyInterval, error)
	// ReserveIfFree inserts a confirmed booking iff its buffered interval is
	// free on its resource. The check and the insert are one atomic operation.
	ReserveIfFree(ctx context.Context, booking *models.Booking) error
	MarkConfirmationSent(ctx context.Context, bookingID string) error
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string, limit int) ([]models.Booking, error)
	// CancelBooking moves a booking from the expected status to cancelled.
	CancelBooking(ctx context.Context, bookingID string, from models.BookingStatus, reason string, at time.Time) error
	CreateBlock(ctx context.Context, block *models.Blocked) error
	RemoveBlock(ctx context.Context, blockID string) error
}

func overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}
