package booking

import (
	"math"
	"time"

	"shutterbook/config"
	"shutterbook/models"
)

const defaultPriceFloor = 0.5

// PricingRules are the multipliers combined into a slot's price modifier.
// A zero multiplier means the rule is off.
type PricingRules struct {
	WeekendMultiplier    float64
	PeakSeasonMultiplier float64
	PeakMonths           []time.Month
	EveningMultiplier    float64
	EveningFromHour      int
	LastMinuteWithin     time.Duration
	LastMinuteMultiplier float64
	EarlyBirdBeyond      time.Duration
	EarlyBirdMultiplier  float64
	SessionMultipliers   map[models.SessionType]float64
	Floor                float64
}

// PricingRulesFromConfig converts the configured pricing section.
func PricingRulesFromConfig(c config.PricingConfig) PricingRules {
	rules := PricingRules{
		WeekendMultiplier:    c.WeekendMultiplier,
		PeakSeasonMultiplier: c.PeakSeasonMultiplier,
		EveningMultiplier:    c.EveningMultiplier,
		EveningFromHour:      c.EveningFromHour,
		LastMinuteWithin:     time.Duration(c.LastMinuteHours) * time.Hour,
		LastMinuteMultiplier: c.LastMinuteMultiplier,
		EarlyBirdBeyond:      time.Duration(c.EarlyBirdDays) * 24 * time.Hour,
		EarlyBirdMultiplier:  c.EarlyBirdMultiplier,
		SessionMultipliers:   make(map[models.SessionType]float64, len(c.SessionMultipliers)),
		Floor:                c.Floor,
	}
	for _, m := range c.PeakMonths {
		if m >= 1 && m <= 12 {
			rules.PeakMonths = append(rules.PeakMonths, time.Month(m))
		}
	}
	for st, m := range c.SessionMultipliers {
		rules.SessionMultipliers[models.SessionType(st)] = m
	}
	return rules
}

// PriceModifierFor returns the multiplier for a session starting at start,
// as seen at now. Rules combine multiplicatively; the result is rounded to
// two decimals and never drops below the floor.
func (r PricingRules) PriceModifierFor(start time.Time, sessionType models.SessionType, now time.Time) float64 {
	modifier := 1.0

	if wd := start.Weekday(); wd == time.Saturday || wd == time.Sunday {
		modifier *= factor(r.WeekendMultiplier)
	}
	for _, m := range r.PeakMonths {
		if start.Month() == m {
			modifier *= factor(r.PeakSeasonMultiplier)
			break
		}
	}
	if r.EveningFromHour > 0 && start.Hour() >= r.EveningFromHour {
		modifier *= factor(r.EveningMultiplier)
	}

	lead := start.Sub(now)
	switch {
	case lead > 0 && r.LastMinuteWithin > 0 && lead <= r.LastMinuteWithin:
		modifier *= factor(r.LastMinuteMultiplier)
	case r.EarlyBirdBeyond > 0 && lead > r.EarlyBirdBeyond:
		modifier *= factor(r.EarlyBirdMultiplier)
	}

	if m, ok := r.SessionMultipliers[sessionType]; ok {
		modifier *= factor(m)
	}

	modifier = math.Round(modifier*100) / 100
	floor := r.Floor
	if floor <= 0 {
		floor = defaultPriceFloor
	}
	return math.Max(modifier, floor)
}

func factor(m float64) float64 {
	if m <= 0 {
		return 1
	}
	return m
}
