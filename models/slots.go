package models

import "time"

// Slot is a candidate bookable window, annotated with availability and price.
type Slot struct {
	StartTime     time.Time   `json:"startTime"`
	EndTime       time.Time   `json:"endTime"`
	SessionType   SessionType `json:"sessionType"`
	IsAvailable   bool        `json:"isAvailable"`
	PriceModifier float64     `json:"priceModifier"`
}
