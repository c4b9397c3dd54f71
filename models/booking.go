package models

import "time"

// BookingStatus is the lifecycle state of a persisted booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// CanTransition reports whether a booking may move from one status to another.
// Nothing leaves cancelled.
func CanTransition(from, to BookingStatus) bool {
	switch from {
	case BookingPending:
		return to == BookingConfirmed || to == BookingCancelled
	case BookingConfirmed:
		return to == BookingCancelled
	default:
		return false
	}
}

// ExternalRefs links a booking to records held by third-party systems.
type ExternalRefs struct {
	CalendarEventID string `bson:"calendar_event_id,omitempty" json:"calendarEventId,omitempty"`
	VideoCallLink   string `bson:"video_call_link,omitempty" json:"videoCallLink,omitempty"`
}

// Booking represents a reserved photography session.
type Booking struct {
	ID                    string        `bson:"id" json:"id"`
	UserID                string        `bson:"user_id" json:"userId"`
	ResourceID            string        `bson:"resource_id" json:"resourceId"`
	StartTime             time.Time     `bson:"start_time" json:"startTime"`
	EndTime               time.Time     `bson:"end_time" json:"endTime"`
	BufferedStart         time.Time     `bson:"buffered_start" json:"-"` // StartTime minus the profile's buffer
	BufferedEnd           time.Time     `bson:"buffered_end" json:"-"`   // EndTime plus the profile's buffer
	SessionType           SessionType   `bson:"session_type" json:"sessionType"`
	ClientName            string        `bson:"client_name" json:"clientName"`
	ClientEmail           string        `bson:"client_email" json:"clientEmail"`
	ClientNotes           string        `bson:"client_notes,omitempty" json:"clientNotes,omitempty"`
	PriceModifier         float64       `bson:"price_modifier" json:"priceModifier"`
	Status                BookingStatus `bson:"status" json:"status"`
	CreatedAt             time.Time     `bson:"created_at" json:"createdAt"`
	ConfirmationEmailSent bool          `bson:"confirmation_email_sent" json:"confirmationEmailSent"`
	ExternalRefs          ExternalRefs  `bson:"external_refs" json:"externalRefs"`
	CancelledAt           *time.Time    `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
	CancelReason          string        `bson:"cancel_reason,omitempty" json:"cancelReason,omitempty"`
}

// BookingRequest is the client's submission for a slot they picked from availability.
type BookingRequest struct {
	UserID       string      `json:"userId"`
	SelectedSlot Slot        `json:"selectedSlot"`
	SessionType  SessionType `json:"sessionType" validate:"required"`
	ClientName   string      `json:"clientName" validate:"required"`
	ClientEmail  string      `json:"clientEmail" validate:"required,email"`
	ClientNotes  string      `json:"clientNotes" validate:"max=2000"`
}
