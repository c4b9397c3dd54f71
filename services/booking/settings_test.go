package booking

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shutterbook/config"
	"shutterbook/models"
)

func TestSchedulerConfigFromConfig(t *testing.T) {
	cfg := config.Config{
		ResourceID:    "studio-a",
		Timezone:      "Africa/Nairobi",
		WorkStartHour: 8,
		WorkEndHour:   18,
		WorkDays:      []string{"Monday", "saturday"},
		SessionProfiles: map[string]config.ProfileConfig{
			"portrait": {DurationMinutes: 60, BufferAfterMinutes: 15},
		},
		Pricing:             config.PricingConfig{WeekendMultiplier: 1.2},
		StoreTimeoutSeconds: 2,
	}

	sc, err := SchedulerConfigFromConfig(cfg)

	require.NoError(t, err)
	assert.Equal(t, "studio-a", sc.ResourceID)
	assert.Equal(t, "Africa/Nairobi", sc.Hours.Location.String())
	assert.Equal(t, []time.Weekday{time.Monday, time.Saturday}, sc.Hours.Days)
	assert.Equal(t, 15*time.Minute, sc.Profiles[models.SessionPortrait].BufferAfter)
	assert.Equal(t, 1.2, sc.Pricing.WeekendMultiplier)
	assert.Equal(t, 2*time.Second, sc.StoreTimeout)
	assert.Equal(t, 10*time.Second, sc.NotifyTimeout)
}

func TestSchedulerConfigFromConfig_Invalid(t *testing.T) {
	_, err := SchedulerConfigFromConfig(config.Config{Timezone: "Mars/Olympus", WorkStartHour: 9, WorkEndHour: 17})
	assert.Error(t, err)

	_, err = SchedulerConfigFromConfig(config.Config{
		Timezone: "UTC", WorkStartHour: 9, WorkEndHour: 17,
		SessionProfiles: map[string]config.ProfileConfig{"portrait": {DurationMinutes: 0}},
	})
	assert.Error(t, err)
}

func TestSchedulerConfigFromConfig_DefaultPricingIsNeutral(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	sc, err := SchedulerConfigFromConfig(cfg)
	require.NoError(t, err)

	now := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	for hour := 9; hour <= 16; hour++ {
		start := time.Date(2025, time.June, 3, hour, 0, 0, 0, time.UTC)
		assert.Equal(t, 1.0, sc.Pricing.PriceModifierFor(start, models.SessionPortrait, now), "hour %d", hour)
	}
}
