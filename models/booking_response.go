package models

// BookingConfirmation is returned to the client once a booking is committed.
type BookingConfirmation struct {
	BookingID             string        `json:"bookingId"`
	Status                BookingStatus `json:"status"`
	ConfirmationEmailSent bool          `json:"confirmationEmailSent"`
	ExternalRefs          ExternalRefs  `json:"externalRefs"`
}
