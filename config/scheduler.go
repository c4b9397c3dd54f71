package config

import (
	"fmt"
	"strings"
	"time"

	"shutterbook/models"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WorkingHours builds the studio's bookable hours from the config.
func (c Config) WorkingHours() (models.WorkingHours, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return models.WorkingHours{}, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.WorkStartHour < 0 || c.WorkEndHour > 24 || c.WorkStartHour >= c.WorkEndHour {
		return models.WorkingHours{}, fmt.Errorf("invalid working hours %d-%d", c.WorkStartHour, c.WorkEndHour)
	}

	days := make([]time.Weekday, 0, len(c.WorkDays))
	for _, name := range c.WorkDays {
		d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return models.WorkingHours{}, fmt.Errorf("invalid weekday %q in WORK_DAYS", name)
		}
		days = append(days, d)
	}

	return models.WorkingHours{
		StartHour: c.WorkStartHour,
		EndHour:   c.WorkEndHour,
		Days:      days,
		Location:  loc,
	}, nil
}

// Profiles returns the configured session type profiles keyed by session type.
func (c Config) Profiles() (map[models.SessionType]models.SessionTypeProfile, error) {
	profiles := make(map[models.SessionType]models.SessionTypeProfile, len(c.SessionProfiles))
	for name, p := range c.SessionProfiles {
		if p.DurationMinutes <= 0 {
			return nil, fmt.Errorf("session profile %q: duration must be positive", name)
		}
		if p.BufferBeforeMinutes < 0 || p.BufferAfterMinutes < 0 {
			return nil, fmt.Errorf("session profile %q: buffers must not be negative", name)
		}
		st := models.SessionType(strings.ToLower(name))
		profiles[st] = models.SessionTypeProfile{
			SessionType:  st,
			Duration:     time.Duration(p.DurationMinutes) * time.Minute,
			BufferBefore: time.Duration(p.BufferBeforeMinutes) * time.Minute,
			BufferAfter:  time.Duration(p.BufferAfterMinutes) * time.Minute,
		}
	}
	return profiles, nil
}

func (c Config) SlotStep() time.Duration {
	return time.Duration(c.SlotStepMinutes) * time.Minute
}

func (c Config) StoreTimeout() time.Duration {
	return seconds(c.StoreTimeoutSeconds, 5)
}

func (c Config) NotifyTimeout() time.Duration {
	return seconds(c.NotifyTimeoutSeconds, 10)
}

func (c Config) AdvisoryTimeout() time.Duration {
	return seconds(c.AdvisoryTimeoutSeconds, 3)
}

func (c Config) AdvisoryCacheTTL() time.Duration {
	if c.AdvisoryCacheMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.AdvisoryCacheMinutes) * time.Minute
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
