package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shutterbook/config"
	"shutterbook/models"
)

func TestPriceModifierFor(t *testing.T) {
	now := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC) // Monday
	weekday := time.Date(2025, time.March, 19, 10, 0, 0, 0, time.UTC)
	saturday := time.Date(2025, time.March, 22, 10, 0, 0, 0, time.UTC)

	rules := PricingRules{
		WeekendMultiplier:    1.2,
		PeakSeasonMultiplier: 1.5,
		PeakMonths:           []time.Month{time.June},
		EveningMultiplier:    1.1,
		EveningFromHour:      16,
		LastMinuteWithin:     48 * time.Hour,
		LastMinuteMultiplier: 0.9,
		EarlyBirdBeyond:      60 * 24 * time.Hour,
		EarlyBirdMultiplier:  0.8,
		SessionMultipliers:   map[models.SessionType]float64{models.SessionWedding: 2, models.SessionHeadshot: 0.1},
	}

	tests := []struct {
		name        string
		rules       PricingRules
		start       time.Time
		sessionType models.SessionType
		want        float64
	}{
		{"zero rules", PricingRules{}, saturday, models.SessionPortrait, 1.0},
		{"plain weekday", rules, weekday, models.SessionPortrait, 1.0},
		{"weekend", rules, saturday, models.SessionPortrait, 1.2},
		{"weekend evening", rules, saturday.Add(7 * time.Hour), models.SessionPortrait, 1.32},
		{"peak month early bird", rules, time.Date(2025, time.June, 4, 10, 0, 0, 0, time.UTC), models.SessionPortrait, 1.2},
		{"last minute", rules, now.Add(24 * time.Hour), models.SessionPortrait, 0.9},
		{"session multiplier", rules, weekday, models.SessionWedding, 2.0},
		{"floored", rules, weekday, models.SessionHeadshot, 0.5},
		{"custom floor", PricingRules{SessionMultipliers: map[models.SessionType]float64{models.SessionProduct: 0.3}, Floor: 0.75}, weekday, models.SessionProduct, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.rules.PriceModifierFor(tt.start, tt.sessionType, now), 1e-9)
		})
	}
}

func TestPriceModifierFor_NeverBelowFloor(t *testing.T) {
	rules := PricingRules{WeekendMultiplier: 0.2, LastMinuteWithin: time.Hour, LastMinuteMultiplier: 0.2}
	now := time.Date(2025, time.March, 22, 9, 30, 0, 0, time.UTC)

	got := rules.PriceModifierFor(now.Add(30*time.Minute), models.SessionPortrait, now)

	assert.Equal(t, 0.5, got)
}

func TestPricingRulesFromConfig(t *testing.T) {
	rules := PricingRulesFromConfig(config.PricingConfig{
		WeekendMultiplier:  1.2,
		PeakMonths:         []int{6, 13, 0, 12},
		LastMinuteHours:    48,
		EarlyBirdDays:      60,
		SessionMultipliers: map[string]float64{"wedding": 1.5},
		Floor:              0.6,
	})

	assert.Equal(t, []time.Month{time.June, time.December}, rules.PeakMonths)
	assert.Equal(t, 48*time.Hour, rules.LastMinuteWithin)
	assert.Equal(t, 60*24*time.Hour, rules.EarlyBirdBeyond)
	assert.Equal(t, 1.5, rules.SessionMultipliers[models.SessionWedding])
	assert.Equal(t, 0.6, rules.Floor)
}
