package models

import "time"

// WeatherData is an advisory daily forecast for an outdoor shoot.
type WeatherData struct {
	Date                     string    `json:"date"`
	Location                 string    `json:"location"`
	Latitude                 float64   `json:"latitude"`
	Longitude                float64   `json:"longitude"`
	TempMinC                 float64   `json:"tempMinC"`
	TempMaxC                 float64   `json:"tempMaxC"`
	PrecipitationProbability int       `json:"precipitationProbability"`
	WeatherCode              int       `json:"weatherCode"`
	Summary                  string    `json:"summary"`
	FetchedAt                time.Time `json:"fetchedAt"`
}
