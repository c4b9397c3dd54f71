package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	calendarRepo "shutterbook/database/repository/calendar"
	"shutterbook/models"
	"shutterbook/utils"

	"go.uber.org/zap"
)

// DefaultAvailabilityService computes open slots from the calendar store.
type DefaultAvailabilityService struct {
	Store  calendarRepo.CalendarStore
	Config SchedulerConfig
	Now    func() time.Time
	Logger *zap.Logger
}

func NewAvailabilityService(store calendarRepo.CalendarStore, cfg SchedulerConfig) *DefaultAvailabilityService {
	return &DefaultAvailabilityService{
		Store:  store,
		Config: cfg,
		Now:    time.Now,
		Logger: utils.GetLogger(),
	}
}

// GetAvailability returns every candidate slot of the session type between
// the calendar days of rangeStart and rangeEnd, each marked available or not
// and annotated with its price modifier. An empty result is not an error.
func (s *DefaultAvailabilityService) GetAvailability(ctx context.Context, rangeStart, rangeEnd time.Time, sessionType models.SessionType) ([]models.Slot, error) {
	profile, ok := s.Config.profile(sessionType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSessionType, sessionType)
	}
	if rangeEnd.Before(rangeStart) {
		return []models.Slot{}, nil
	}

	from, to := s.queryWindow(rangeStart, rangeEnd, profile)
	busy, err := s.readBusy(ctx, from, to)
	if err != nil {
		s.Logger.Warn("GetAvailability: calendar store read failed",
			zap.String("resourceID", s.Config.ResourceID), zap.Error(err))
		return nil, err
	}

	now := s.Now()
	slots := GenerateSlots(rangeStart, rangeEnd, profile, busy, s.Config.Hours, SlotOptions{
		Step:       s.Config.Step,
		Now:        now,
		ResourceID: s.Config.ResourceID,
	})
	for i := range slots {
		slots[i].PriceModifier = s.Config.Pricing.PriceModifierFor(slots[i].StartTime, sessionType, now)
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}

// Profile returns the configured profile of a session type.
func (s *DefaultAvailabilityService) Profile(sessionType models.SessionType) (models.SessionTypeProfile, error) {
	profile, ok := s.Config.profile(sessionType)
	if !ok {
		return models.SessionTypeProfile{}, fmt.Errorf("%w: %q", ErrUnknownSessionType, sessionType)
	}
	return profile, nil
}

// ListSessionTypes returns the configured profiles ordered by duration, then name.
func (s *DefaultAvailabilityService) ListSessionTypes() []models.SessionTypeProfile {
	out := make([]models.SessionTypeProfile, 0, len(s.Config.Profiles))
	for _, p := range s.Config.Profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration != out[j].Duration {
			return out[i].Duration < out[j].Duration
		}
		return out[i].SessionType < out[j].SessionType
	})
	return out
}

// queryWindow covers whole calendar days of the range, widened by the buffers
// so busy time just outside working hours still blocks edge slots.
func (s *DefaultAvailabilityService) queryWindow(rangeStart, rangeEnd time.Time, profile models.SessionTypeProfile) (time.Time, time.Time) {
	loc := s.Config.Hours.Location
	if loc == nil {
		loc = rangeStart.Location()
	}
	from := startOfDay(rangeStart.In(loc))
	to := startOfDay(rangeEnd.In(loc)).AddDate(0, 0, 1)
	return from.Add(-profile.BufferBefore), to.Add(profile.BufferAfter)
}

func (s *DefaultAvailabilityService) readBusy(ctx context.Context, from, to time.Time) ([]models.BusyInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Config.storeTimeout())
	defer cancel()

	busy, err := s.Store.ReadBusyIntervals(ctx, s.Config.ResourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: reading busy intervals: %w", ErrStoreUnavailable, err)
	}
	return busy, nil
}
