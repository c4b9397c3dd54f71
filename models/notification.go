package models

// ConfirmationRetryPayload is the queued payload for re-sending a booking confirmation.
type ConfirmationRetryPayload struct {
	BookingID string `json:"bookingId"`
}
