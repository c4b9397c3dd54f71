package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shutterbook/models"

	"go.uber.org/zap"
)

const weatherCachePrefix = "advisory:weather:"

// WeatherProvider returns an advisory forecast for an outdoor shoot.
type WeatherProvider interface {
	GetWeatherForecast(ctx context.Context, date time.Time, location string) Advice[models.WeatherData]
}

// OpenMeteoProvider talks to an Open-Meteo compatible geocoding and daily
// forecast API.
type OpenMeteoProvider struct {
	HTTPClient   *http.Client
	GeocodingURL string
	ForecastURL  string
	Cache        Cache
	CacheTTL     time.Duration
	Timeout      time.Duration
	Now          func() time.Time
	Logger       *zap.Logger
}

func NewOpenMeteoProvider(geocodingURL, forecastURL string, cache Cache, cacheTTL, timeout time.Duration, logger *zap.Logger) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		HTTPClient:   &http.Client{},
		GeocodingURL: strings.TrimRight(geocodingURL, "/"),
		ForecastURL:  strings.TrimRight(forecastURL, "/"),
		Cache:        cache,
		CacheTTL:     cacheTTL,
		Timeout:      timeout,
		Now:          time.Now,
		Logger:       logger,
	}
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Daily struct {
		Time                        []string  `json:"time"`
		WeatherCode                 []int     `json:"weather_code"`
		TemperatureMax              []float64 `json:"temperature_2m_max"`
		TemperatureMin              []float64 `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []int     `json:"precipitation_probability_max"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) GetWeatherForecast(ctx context.Context, date time.Time, location string) Advice[models.WeatherData] {
	location = strings.TrimSpace(location)
	if location == "" {
		return Unavailable[models.WeatherData]("no location given")
	}
	return Guard(ctx, p.Timeout, p.Logger, "weather", func(ctx context.Context) (models.WeatherData, error) {
		return p.forecast(ctx, date.Format("2006-01-02"), location)
	})
}

func (p *OpenMeteoProvider) forecast(ctx context.Context, day, location string) (models.WeatherData, error) {
	key := weatherCachePrefix + strings.ToLower(location) + ":" + day
	if cached, ok := p.cached(ctx, key); ok {
		return cached, nil
	}

	var geo geocodingResponse
	q := url.Values{"name": {location}, "count": {"1"}}
	if err := p.getJSON(ctx, p.GeocodingURL+"/v1/search?"+q.Encode(), &geo); err != nil {
		return models.WeatherData{}, fmt.Errorf("geocoding %q: %w", location, err)
	}
	if len(geo.Results) == 0 {
		return models.WeatherData{}, fmt.Errorf("geocoding %q: no match", location)
	}
	place := geo.Results[0]

	var fc forecastResponse
	q = url.Values{
		"latitude":   {fmt.Sprintf("%.4f", place.Latitude)},
		"longitude":  {fmt.Sprintf("%.4f", place.Longitude)},
		"daily":      {"weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max"},
		"timezone":   {"auto"},
		"start_date": {day},
		"end_date":   {day},
	}
	if err := p.getJSON(ctx, p.ForecastURL+"/v1/forecast?"+q.Encode(), &fc); err != nil {
		return models.WeatherData{}, fmt.Errorf("forecast for %s: %w", day, err)
	}
	d := fc.Daily
	if len(d.Time) == 0 || len(d.WeatherCode) == 0 || len(d.TemperatureMax) == 0 || len(d.TemperatureMin) == 0 {
		return models.WeatherData{}, errors.New("forecast has no daily data")
	}

	data := models.WeatherData{
		Date:        d.Time[0],
		Location:    place.Name,
		Latitude:    place.Latitude,
		Longitude:   place.Longitude,
		TempMinC:    d.TemperatureMin[0],
		TempMaxC:    d.TemperatureMax[0],
		WeatherCode: d.WeatherCode[0],
		Summary:     describeWeatherCode(d.WeatherCode[0]),
		FetchedAt:   p.Now(),
	}
	if len(d.PrecipitationProbabilityMax) > 0 {
		data.PrecipitationProbability = d.PrecipitationProbabilityMax[0]
	}

	p.store(ctx, key, data)
	return data, nil
}

func (p *OpenMeteoProvider) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p *OpenMeteoProvider) cached(ctx context.Context, key string) (models.WeatherData, bool) {
	if p.Cache == nil {
		return models.WeatherData{}, false
	}
	raw, err := p.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			p.Logger.Debug("Weather cache read failed", zap.String("key", key), zap.Error(err))
		}
		return models.WeatherData{}, false
	}
	var data models.WeatherData
	if err := json.Unmarshal(raw, &data); err != nil {
		return models.WeatherData{}, false
	}
	return data, true
}

func (p *OpenMeteoProvider) store(ctx context.Context, key string, data models.WeatherData) {
	if p.Cache == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := p.Cache.Set(ctx, key, raw, p.CacheTTL); err != nil {
		p.Logger.Debug("Weather cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// describeWeatherCode maps WMO weather codes to a short photographer-facing summary.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 3:
		return "Partly cloudy"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67, code >= 80 && code <= 82:
		return "Rain"
	case code >= 71 && code <= 77, code == 85 || code == 86:
		return "Snow"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unsettled"
	}
}
