package booking

import (
	"context"
	"time"

	"shutterbook/models"
)

// Notifier delivers booking confirmations to the client.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, booking models.Booking) error
}

// RetryQueue schedules an out-of-band retry of a failed confirmation.
type RetryQueue interface {
	EnqueueConfirmationRetry(ctx context.Context, bookingID string) error
}

// AvailabilityService answers what a client can book for a session type.
type AvailabilityService interface {
	GetAvailability(ctx context.Context, rangeStart, rangeEnd time.Time, sessionType models.SessionType) ([]models.Slot, error)
	ListSessionTypes() []models.SessionTypeProfile
}

// BookingCoordinator validates, reserves and confirms bookings.
type BookingCoordinator interface {
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingConfirmation, error)
	GetBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, userID, reason string) (*models.Booking, error)
	ResendConfirmation(ctx context.Context, bookingID string) error
	BlockTime(ctx context.Context, start, end time.Time, reason string) (*models.Blocked, error)
	RemoveBlock(ctx context.Context, blockID string) error
}

// SchedulerConfig is the static scheduling configuration shared by the
// availability service and the booking coordinator.
type SchedulerConfig struct {
	ResourceID    string
	Profiles      map[models.SessionType]models.SessionTypeProfile
	Hours         models.WorkingHours
	Pricing       PricingRules
	Step          time.Duration
	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
}

func (c SchedulerConfig) profile(st models.SessionType) (models.SessionTypeProfile, bool) {
	p, ok := c.Profiles[st]
	return p, ok
}

func (c SchedulerConfig) storeTimeout() time.Duration {
	if c.StoreTimeout <= 0 {
		return 5 * time.Second
	}
	return c.StoreTimeout
}

func (c SchedulerConfig) notifyTimeout() time.Duration {
	if c.NotifyTimeout <= 0 {
		return 10 * time.Second
	}
	return c.NotifyTimeout
}
