package config

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// ProfileConfig is the YAML shape of a session type profile.
type ProfileConfig struct {
	DurationMinutes     int `mapstructure:"duration_minutes"`
	BufferBeforeMinutes int `mapstructure:"buffer_before_minutes"`
	BufferAfterMinutes  int `mapstructure:"buffer_after_minutes"`
}

// PricingConfig holds the multipliers applied to slot prices.
type PricingConfig struct {
	WeekendMultiplier    float64            `mapstructure:"weekend_multiplier"`
	PeakSeasonMultiplier float64            `mapstructure:"peak_season_multiplier"`
	PeakMonths           []int              `mapstructure:"peak_months"`
	EveningFromHour      int                `mapstructure:"evening_from_hour"`
	EveningMultiplier    float64            `mapstructure:"evening_multiplier"`
	LastMinuteHours      int                `mapstructure:"last_minute_hours"`
	LastMinuteMultiplier float64            `mapstructure:"last_minute_multiplier"`
	EarlyBirdDays        int                `mapstructure:"early_bird_days"`
	EarlyBirdMultiplier  float64            `mapstructure:"early_bird_multiplier"`
	SessionMultipliers   map[string]float64 `mapstructure:"session_multipliers"`
	Floor                float64            `mapstructure:"floor"`
}

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AllowedOrigins    string `mapstructure:"ALLOWED_ORIGINS"`

	// Calendar store: "mongo", "postgres" or "memory".
	StoreDriver  string `mapstructure:"STORE_DRIVER"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	PostgresURL  string `mapstructure:"POSTGRES_URL"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Notifications.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	SMTPHost                string `mapstructure:"SMTP_HOST"`
	SMTPPort                string `mapstructure:"SMTP_PORT"`
	SMTPFrom                string `mapstructure:"SMTP_FROM"`

	// Advisory add-ons.
	GeminiAPIKey           string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel            string `mapstructure:"GEMINI_MODEL"`
	WeatherBaseURL         string `mapstructure:"WEATHER_BASE_URL"`
	GeocodingBaseURL       string `mapstructure:"GEOCODING_BASE_URL"`
	AdvisoryTimeoutSeconds int    `mapstructure:"ADVISORY_TIMEOUT_SECONDS"`
	AdvisoryCacheMinutes   int    `mapstructure:"ADVISORY_CACHE_MINUTES"`

	// Scheduler.
	ResourceID           string                   `mapstructure:"RESOURCE_ID"`
	Timezone             string                   `mapstructure:"TIMEZONE"`
	WorkStartHour        int                      `mapstructure:"WORK_START_HOUR"`
	WorkEndHour          int                      `mapstructure:"WORK_END_HOUR"`
	WorkDays             []string                 `mapstructure:"WORK_DAYS"`
	SlotStepMinutes      int                      `mapstructure:"SLOT_STEP_MINUTES"`
	StoreTimeoutSeconds  int                      `mapstructure:"STORE_TIMEOUT_SECONDS"`
	NotifyTimeoutSeconds int                      `mapstructure:"NOTIFY_TIMEOUT_SECONDS"`
	SessionProfiles      map[string]ProfileConfig `mapstructure:"SESSION_PROFILES"`
	Pricing              PricingConfig            `mapstructure:"PRICING"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("ALLOWED_ORIGINS", "*")

	v.SetDefault("STORE_DRIVER", "mongo")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "shutterbook")
	v.SetDefault("POSTGRES_URL", "postgres://localhost:5432/shutterbook")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)

	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", "1025")
	v.SetDefault("SMTP_FROM", "studio@shutterbook.local")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "models/gemini-1.5-flash")
	v.SetDefault("WEATHER_BASE_URL", "https://api.open-meteo.com")
	v.SetDefault("GEOCODING_BASE_URL", "https://geocoding-api.open-meteo.com")
	v.SetDefault("ADVISORY_TIMEOUT_SECONDS", 3)
	v.SetDefault("ADVISORY_CACHE_MINUTES", 60)

	v.SetDefault("RESOURCE_ID", "studio")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("WORK_START_HOUR", 9)
	v.SetDefault("WORK_END_HOUR", 17)
	v.SetDefault("WORK_DAYS", []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"})
	v.SetDefault("SLOT_STEP_MINUTES", 0)
	v.SetDefault("STORE_TIMEOUT_SECONDS", 5)
	v.SetDefault("NOTIFY_TIMEOUT_SECONDS", 10)
	v.SetDefault("SESSION_PROFILES", map[string]any{
		"portrait": map[string]any{"duration_minutes": 60, "buffer_before_minutes": 0, "buffer_after_minutes": 15},
		"headshot": map[string]any{"duration_minutes": 30, "buffer_before_minutes": 0, "buffer_after_minutes": 0},
		"family":   map[string]any{"duration_minutes": 90, "buffer_before_minutes": 15, "buffer_after_minutes": 15},
		"product":  map[string]any{"duration_minutes": 120, "buffer_before_minutes": 0, "buffer_after_minutes": 30},
		"event":    map[string]any{"duration_minutes": 180, "buffer_before_minutes": 30, "buffer_after_minutes": 30},
		"wedding":  map[string]any{"duration_minutes": 480, "buffer_before_minutes": 60, "buffer_after_minutes": 60},
	})
	// Pricing rules are opt-in; with none configured every slot prices at 1.0.
	v.SetDefault("PRICING.FLOOR", 0.5)
}

// Load reads configuration from the given viper instance. Config files are
// optional; environment variables always win over file values.
func Load(v *viper.Viper) (Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ErrMissingJWTSecret is returned by Load in production when no JWT_SECRET is set.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set when ENV=production")

func (c Config) validate() error {
	if c.Env == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// LoadConfig populates AppConfig from the global viper instance.
func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
