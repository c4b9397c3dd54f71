package booking

import (
	"time"

	"shutterbook/models"
)

// SlotOptions tunes slot generation.
type SlotOptions struct {
	// Step between candidate starts. It defaults to the buffered session
	// length, so consecutive slots never share buffer time. A shorter step
	// deliberately lets buffered slots overlap.
	Step time.Duration
	// Now is the reference instant; starts not strictly after it are unavailable.
	Now time.Time
	// ResourceID restricts the busy intervals considered. Empty means all.
	ResourceID string
}

// GenerateSlots enumerates candidate slots for every allowed day in
// [rangeStart, rangeEnd], marking each available iff its buffered interval is
// clear of every busy interval and it starts in the future. Unavailable slots
// are kept so callers can render a full grid. The result is ordered by start.
func GenerateSlots(rangeStart, rangeEnd time.Time, profile models.SessionTypeProfile, busy []models.BusyInterval, hours models.WorkingHours, opts SlotOptions) []models.Slot {
	slots := []models.Slot{}
	if rangeEnd.Before(rangeStart) || profile.Duration <= 0 {
		return slots
	}

	step := opts.Step
	if step <= 0 {
		step = DefaultStep(profile)
	}
	loc := hours.Location
	if loc == nil {
		loc = rangeStart.Location()
	}

	relevant := busy[:0:0]
	for _, b := range busy {
		if opts.ResourceID == "" || b.ResourceID == "" || b.ResourceID == opts.ResourceID {
			relevant = append(relevant, b)
		}
	}

	first := startOfDay(rangeStart.In(loc))
	last := startOfDay(rangeEnd.In(loc))
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !hours.Allows(day.Weekday()) {
			continue
		}
		open := time.Date(day.Year(), day.Month(), day.Day(), hours.StartHour, 0, 0, 0, loc)
		closing := time.Date(day.Year(), day.Month(), day.Day(), hours.EndHour, 0, 0, 0, loc)

		for start := open; !start.Add(profile.Duration).After(closing); start = start.Add(step) {
			end := start.Add(profile.Duration)
			slots = append(slots, models.Slot{
				StartTime:     start,
				EndTime:       end,
				SessionType:   profile.SessionType,
				IsAvailable:   start.After(opts.Now) && !overlapsAny(start.Add(-profile.BufferBefore), end.Add(profile.BufferAfter), relevant),
				PriceModifier: 1.0,
			})
		}
	}
	return slots
}

// DefaultStep is the grid step used when none is configured: the session
// plus both of its buffers.
func DefaultStep(profile models.SessionTypeProfile) time.Duration {
	return profile.BufferBefore + profile.Duration + profile.BufferAfter
}

// BufferedInterval widens a session by its profile's buffers.
func BufferedInterval(start, end time.Time, profile models.SessionTypeProfile) (time.Time, time.Time) {
	return start.Add(-profile.BufferBefore), end.Add(profile.BufferAfter)
}

func overlapsAny(start, end time.Time, busy []models.BusyInterval) bool {
	for _, b := range busy {
		// Half-open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
