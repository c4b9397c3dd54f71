package calendarRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"shutterbook/models"
)

// MemoryCalendarStore keeps the calendar in process memory. A single mutex
// makes ReserveIfFree atomic, which only holds for one instance; it backs
// STORE_DRIVER=memory for local development and tests.
type MemoryCalendarStore struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	blocks   map[string]models.Blocked
	order    []string
}

func NewMemoryCalendarStore() *MemoryCalendarStore {
	return &MemoryCalendarStore{
		bookings: make(map[string]models.Booking),
		blocks:   make(map[string]models.Blocked),
	}
}

func (s *MemoryCalendarStore) ReadBusyIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]models.BusyInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var busy []models.BusyInterval
	for _, b := range s.bookings {
		if b.ResourceID != resourceID || b.Status != models.BookingConfirmed {
			continue
		}
		if overlaps(b.BufferedStart, b.BufferedEnd, from, to) {
			busy = append(busy, models.BusyInterval{
				Start: b.BufferedStart, End: b.BufferedEnd, ResourceID: resourceID,
				Source: models.BusySourceBooking, SourceID: b.ID,
			})
		}
	}
	for _, bl := range s.blocks {
		if bl.ResourceID != resourceID || bl.Removed {
			continue
		}
		if overlaps(bl.Start, bl.End, from, to) {
			busy = append(busy, models.BusyInterval{
				Start: bl.Start, End: bl.End, ResourceID: resourceID,
				Source: models.BusySourceBlock, SourceID: bl.ID,
			})
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy, nil
}

func (s *MemoryCalendarStore) ReserveIfFree(ctx context.Context, booking *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bookings {
		if b.ResourceID == booking.ResourceID && b.Status == models.BookingConfirmed &&
			overlaps(b.BufferedStart, b.BufferedEnd, booking.BufferedStart, booking.BufferedEnd) {
			return ErrReservationConflict
		}
	}
	for _, bl := range s.blocks {
		if bl.ResourceID == booking.ResourceID && !bl.Removed &&
			overlaps(bl.Start, bl.End, booking.BufferedStart, booking.BufferedEnd) {
			return ErrReservationConflict
		}
	}

	stored := *booking
	stored.Status = models.BookingConfirmed
	s.bookings[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	booking.Status = models.BookingConfirmed
	return nil
}

func (s *MemoryCalendarStore) MarkConfirmationSent(ctx context.Context, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return ErrNotFound
	}
	b.ConfirmationEmailSent = true
	s.bookings[bookingID] = b
	return nil
}

func (s *MemoryCalendarStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryCalendarStore) ListBookingsByUser(ctx context.Context, userID string, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Booking
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		if b := s.bookings[s.order[i]]; b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryCalendarStore) CancelBooking(ctx context.Context, bookingID string, from models.BookingStatus, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return ErrNotFound
	}
	if b.Status != from {
		return ErrStaleStatus
	}
	b.Status = models.BookingCancelled
	b.CancelReason = reason
	b.CancelledAt = &at
	s.bookings[bookingID] = b
	return nil
}

func (s *MemoryCalendarStore) CreateBlock(ctx context.Context, block *models.Blocked) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blocks[block.ID] = *block
	return nil
}

func (s *MemoryCalendarStore) RemoveBlock(ctx context.Context, blockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bl, ok := s.blocks[blockID]
	if !ok || bl.Removed {
		return ErrNotFound
	}
	bl.Removed = true
	s.blocks[blockID] = bl
	return nil
}
