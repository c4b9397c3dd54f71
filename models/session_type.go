package models

import "time"

// SessionType identifies a kind of photography session.
type SessionType string

const (
	SessionPortrait SessionType = "portrait"
	SessionFamily   SessionType = "family"
	SessionHeadshot SessionType = "headshot"
	SessionEvent    SessionType = "event"
	SessionWedding  SessionType = "wedding"
	SessionProduct  SessionType = "product"
)

// SessionTypeProfile is the static duration/buffer configuration of a session type.
type SessionTypeProfile struct {
	SessionType  SessionType   `json:"sessionType"`
	Duration     time.Duration `json:"duration"`
	BufferBefore time.Duration `json:"bufferBefore"`
	BufferAfter  time.Duration `json:"bufferAfter"`
}

// WorkingHours bounds the hours and weekdays on which sessions may start.
type WorkingHours struct {
	StartHour int
	EndHour   int
	Days      []time.Weekday
	Location  *time.Location
}

// Allows reports whether sessions may be held on the given weekday.
func (w WorkingHours) Allows(day time.Weekday) bool {
	for _, d := range w.Days {
		if d == day {
			return true
		}
	}
	return false
}
