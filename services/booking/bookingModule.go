package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	calendarRepo "shutterbook/database/repository/calendar"
	"shutterbook/models"
	"shutterbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBookingCoordinator commits bookings against the calendar store.
type DefaultBookingCoordinator struct {
	Store    calendarRepo.CalendarStore
	Notifier Notifier
	Retries  RetryQueue
	Config   SchedulerConfig
	Now      func() time.Time
	NewID    func() string
	Logger   *zap.Logger
}

func NewBookingCoordinator(store calendarRepo.CalendarStore, notifier Notifier, retries RetryQueue, cfg SchedulerConfig) *DefaultBookingCoordinator {
	return &DefaultBookingCoordinator{
		Store:    store,
		Notifier: notifier,
		Retries:  retries,
		Config:   cfg,
		Now:      time.Now,
		NewID:    func() string { return uuid.New().String() },
		Logger:   utils.GetLogger(),
	}
}

// CreateBooking validates the request, atomically reserves the slot and then
// sends the confirmation. A failed confirmation does not undo the booking; it
// is reported through ConfirmationEmailSent and retried out of band.
func (c *DefaultBookingCoordinator) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingConfirmation, error) {
	req = normalizeRequest(req)
	now := c.Now()

	if verr := validateFields(req); verr != nil {
		return nil, verr
	}
	profile, ok := c.Config.profile(req.SessionType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSessionType, req.SessionType)
	}
	if verr := validateSlot(req.SelectedSlot, req.SessionType, profile, c.Config, now); verr != nil {
		return nil, verr
	}

	start := req.SelectedSlot.StartTime
	end := start.Add(profile.Duration)
	bufferedStart, bufferedEnd := BufferedInterval(start, end, profile)
	booking := &models.Booking{
		ID:            c.NewID(),
		UserID:        req.UserID,
		ResourceID:    c.Config.ResourceID,
		StartTime:     start,
		EndTime:       end,
		BufferedStart: bufferedStart,
		BufferedEnd:   bufferedEnd,
		SessionType:   req.SessionType,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientNotes:   req.ClientNotes,
		PriceModifier: c.Config.Pricing.PriceModifierFor(start, req.SessionType, now),
		Status:        models.BookingPending,
		CreatedAt:     now,
	}

	if err := c.reserve(ctx, booking); err != nil {
		return nil, err
	}
	c.Logger.Info("Booking confirmed",
		zap.String("bookingID", booking.ID),
		zap.String("sessionType", string(booking.SessionType)),
		zap.Time("start", booking.StartTime))

	booking.ConfirmationEmailSent = c.sendConfirmation(ctx, *booking)

	return &models.BookingConfirmation{
		BookingID:             booking.ID,
		Status:                booking.Status,
		ConfirmationEmailSent: booking.ConfirmationEmailSent,
		ExternalRefs:          booking.ExternalRefs,
	}, nil
}

func (c *DefaultBookingCoordinator) reserve(ctx context.Context, booking *models.Booking) error {
	if !models.CanTransition(booking.Status, models.BookingConfirmed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, models.BookingConfirmed)
	}
	ctx, cancel := context.WithTimeout(ctx, c.Config.storeTimeout())
	defer cancel()

	err := c.Store.ReserveIfFree(ctx, booking)
	switch {
	case err == nil:
		booking.Status = models.BookingConfirmed
		return nil
	case errors.Is(err, calendarRepo.ErrReservationConflict):
		c.Logger.Info("Slot taken by a concurrent booking",
			zap.String("resourceID", booking.ResourceID), zap.Time("start", booking.StartTime))
		return ErrSlotNoLongerAvailable
	default:
		c.Logger.Error("Reserve failed", zap.String("bookingID", booking.ID), zap.Error(err))
		return fmt.Errorf("%w: reserving slot: %w", ErrStoreUnavailable, err)
	}
}

// sendConfirmation reports whether the client was notified. On failure a
// retry is queued; the caller's outcome is unaffected either way.
func (c *DefaultBookingCoordinator) sendConfirmation(ctx context.Context, booking models.Booking) bool {
	bg := context.WithoutCancel(ctx)

	if err := c.notify(bg, booking); err != nil {
		c.Logger.Warn("Confirmation not delivered, scheduling retry",
			zap.String("bookingID", booking.ID), zap.Error(err))
		c.enqueueRetry(bg, booking.ID)
		return false
	}

	storeCtx, cancel := context.WithTimeout(bg, c.Config.storeTimeout())
	defer cancel()
	if err := c.Store.MarkConfirmationSent(storeCtx, booking.ID); err != nil {
		c.Logger.Warn("Confirmation sent but flag not persisted",
			zap.String("bookingID", booking.ID), zap.Error(err))
	}
	return true
}

func (c *DefaultBookingCoordinator) notify(ctx context.Context, booking models.Booking) (err error) {
	if c.Notifier == nil {
		return errors.New("no notifier configured")
	}
	ctx, cancel := context.WithTimeout(ctx, c.Config.notifyTimeout())
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return c.Notifier.SendBookingConfirmation(ctx, booking)
}

func (c *DefaultBookingCoordinator) enqueueRetry(ctx context.Context, bookingID string) {
	if c.Retries == nil {
		c.Logger.Error("No retry queue configured, confirmation will not be retried",
			zap.String("bookingID", bookingID))
		return
	}
	if err := c.Retries.EnqueueConfirmationRetry(ctx, bookingID); err != nil {
		c.Logger.Error("Failed to enqueue confirmation retry",
			zap.String("bookingID", bookingID), zap.Error(err))
	}
}

// ResendConfirmation is run by the retry worker. Bookings that are already
// confirmed-and-notified or no longer confirmed are skipped.
func (c *DefaultBookingCoordinator) ResendConfirmation(ctx context.Context, bookingID string) error {
	booking, err := c.load(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingConfirmed || booking.ConfirmationEmailSent {
		c.Logger.Info("Skipping confirmation retry",
			zap.String("bookingID", bookingID),
			zap.String("status", string(booking.Status)),
			zap.Bool("alreadySent", booking.ConfirmationEmailSent))
		return nil
	}
	if err := c.notify(ctx, *booking); err != nil {
		return fmt.Errorf("resending confirmation for %s: %w", bookingID, err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, c.Config.storeTimeout())
	defer cancel()
	if err := c.Store.MarkConfirmationSent(storeCtx, bookingID); err != nil {
		return fmt.Errorf("%w: marking confirmation sent: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// GetBooking returns a booking owned by userID. An empty userID skips the
// ownership check.
func (c *DefaultBookingCoordinator) GetBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	booking, err := c.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if userID != "" && booking.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// CancelBooking moves a booking to cancelled, freeing its slot.
func (c *DefaultBookingCoordinator) CancelBooking(ctx context.Context, bookingID, userID, reason string) (*models.Booking, error) {
	booking, err := c.GetBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(booking.Status, models.BookingCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, models.BookingCancelled)
	}

	now := c.Now()
	storeCtx, cancel := context.WithTimeout(ctx, c.Config.storeTimeout())
	defer cancel()
	err = c.Store.CancelBooking(storeCtx, bookingID, booking.Status, reason, now)
	switch {
	case errors.Is(err, calendarRepo.ErrNotFound):
		return nil, ErrBookingNotFound
	case errors.Is(err, calendarRepo.ErrStaleStatus):
		return nil, fmt.Errorf("%w: booking %s changed concurrently", ErrInvalidTransition, bookingID)
	case err != nil:
		return nil, fmt.Errorf("%w: cancelling booking: %w", ErrStoreUnavailable, err)
	}

	booking.Status = models.BookingCancelled
	booking.CancelReason = reason
	booking.CancelledAt = &now
	c.Logger.Info("Booking cancelled", zap.String("bookingID", bookingID), zap.String("reason", reason))
	return booking, nil
}

// BlockTime marks [start, end) busy on the studio calendar. Existing
// bookings inside the window are left alone.
func (c *DefaultBookingCoordinator) BlockTime(ctx context.Context, start, end time.Time, reason string) (*models.Blocked, error) {
	if !end.After(start) {
		verr := &ValidationError{}
		verr.add("end", "must be after start")
		return nil, verr
	}
	block := &models.Blocked{
		ID:         c.NewID(),
		ResourceID: c.Config.ResourceID,
		Start:      start,
		End:        end,
		Reason:     reason,
		CreatedAt:  c.Now(),
	}

	storeCtx, cancel := context.WithTimeout(ctx, c.Config.storeTimeout())
	defer cancel()
	if err := c.Store.CreateBlock(storeCtx, block); err != nil {
		return nil, fmt.Errorf("%w: creating block: %w", ErrStoreUnavailable, err)
	}
	return block, nil
}

func (c *DefaultBookingCoordinator) RemoveBlock(ctx context.Context, blockID string) error {
	storeCtx, cancel := context.WithTimeout(ctx, c.Config.storeTimeout())
	defer cancel()

	err := c.Store.RemoveBlock(storeCtx, blockID)
	switch {
	case errors.Is(err, calendarRepo.ErrNotFound):
		return ErrBlockNotFound
	case err != nil:
		return fmt.Errorf("%w: removing block: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (c *DefaultBookingCoordinator) load(ctx context.Context, bookingID string) (*models.Booking, error) {
	storeCtx, cancel := context.WithTimeout(ctx, c.Config.storeTimeout())
	defer cancel()

	booking, err := c.Store.GetBooking(storeCtx, bookingID)
	switch {
	case errors.Is(err, calendarRepo.ErrNotFound):
		return nil, ErrBookingNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: loading booking: %w", ErrStoreUnavailable, err)
	}
	return booking, nil
}
