package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shutterbook/models"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, "studio", cfg.ResourceID)
	assert.Equal(t, 9, cfg.WorkStartHour)
	assert.Equal(t, 17, cfg.WorkEndHour)
	assert.InDelta(t, 0.5, cfg.Pricing.Floor, 1e-9)
	assert.Zero(t, cfg.Pricing.WeekendMultiplier, "pricing rules are opt-in")
	assert.Zero(t, cfg.Pricing.EveningFromHour)
	assert.Empty(t, cfg.Pricing.PeakMonths)

	profiles, err := cfg.Profiles()
	require.NoError(t, err)
	require.Contains(t, profiles, models.SessionPortrait)
	assert.Equal(t, 60*time.Minute, profiles[models.SessionPortrait].Duration)
	assert.Equal(t, 15*time.Minute, profiles[models.SessionPortrait].BufferAfter)
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := []byte(`
RESOURCE_ID: second-shooter
WORK_START_HOUR: 10
WORK_DAYS: [tuesday, thursday]
SESSION_PROFILES:
  mini:
    duration_minutes: 20
    buffer_after_minutes: 5
PRICING:
  weekend_multiplier: 1.5
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "second-shooter", cfg.ResourceID)
	assert.Equal(t, 10, cfg.WorkStartHour)
	assert.InDelta(t, 1.5, cfg.Pricing.WeekendMultiplier, 1e-9)

	hours, err := cfg.WorkingHours()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Thursday}, hours.Days)

	profiles, err := cfg.Profiles()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Minute, profiles["mini"].Duration)
	assert.Equal(t, 5*time.Minute, profiles["mini"].BufferAfter)
}

func TestLoad_EnvWins(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("WORK_END_HOUR", "19")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 19, cfg.WorkEndHour)
}

func TestWorkingHours_Invalid(t *testing.T) {
	cases := map[string]Config{
		"bad timezone": {Timezone: "Mars/Olympus", WorkStartHour: 9, WorkEndHour: 17},
		"inverted":     {Timezone: "UTC", WorkStartHour: 17, WorkEndHour: 9},
		"bad weekday":  {Timezone: "UTC", WorkStartHour: 9, WorkEndHour: 17, WorkDays: []string{"funday"}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := cfg.WorkingHours()
			assert.Error(t, err)
		})
	}
}

func TestProfiles_RejectsNonPositiveDuration(t *testing.T) {
	cfg := Config{SessionProfiles: map[string]ProfileConfig{"broken": {DurationMinutes: 0}}}
	_, err := cfg.Profiles()
	assert.Error(t, err)
}

func TestTimeoutFallbacks(t *testing.T) {
	var cfg Config
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout())
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout())
	assert.Equal(t, 3*time.Second, cfg.AdvisoryTimeout())
	assert.Equal(t, time.Hour, cfg.AdvisoryCacheTTL())
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "production")

	_, err := Load(viper.New())
	assert.ErrorIs(t, err, ErrMissingJWTSecret)

	t.Setenv("JWT_SECRET", "rotated-secret")
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "rotated-secret", cfg.JWTSecret)
}

func TestLoad_DevelopmentAllowsMissingJWTSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "development")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Empty(t, cfg.JWTSecret)
}
