package models

import "time"

// Suggestion is an advisory recommendation of the next session type for a client.
type Suggestion struct {
	UserID      string      `json:"userId"`
	SessionType SessionType `json:"sessionType"`
	Reason      string      `json:"reason"`
	GeneratedAt time.Time   `json:"generatedAt"`
}
