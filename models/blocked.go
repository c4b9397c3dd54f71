package models

import "time"

// Blocked is a manual block-out on the studio calendar (holiday, travel, maintenance).
type Blocked struct {
	ID         string    `bson:"id" json:"id"`
	ResourceID string    `bson:"resource_id" json:"resourceId"`
	Start      time.Time `bson:"start" json:"start"`
	End        time.Time `bson:"end" json:"end"`
	Reason     string    `bson:"reason" json:"reason"`
	Removed    bool      `bson:"removed" json:"removed"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}

// Busy interval sources.
const (
	BusySourceBooking = "booking"
	BusySourceBlock   = "block"
)

// BusyInterval is time already committed on a resource's calendar.
type BusyInterval struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ResourceID string    `json:"resourceId"`
	Source     string    `json:"source,omitempty"`
	SourceID   string    `json:"sourceId,omitempty"`
}
