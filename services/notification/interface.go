package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shutterbook/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// PushClient is the subset of the FCM client used for booking pushes.
type PushClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// BookingNotifier emails the booking confirmation and, when a push client is
// configured, pushes it to the user's topic. Only the email decides success.
type BookingNotifier struct {
	Email  EmailSender
	Push   PushClient
	Logger *zap.Logger
}

func NewBookingNotifier(email EmailSender, push PushClient, logger *zap.Logger) (*BookingNotifier, error) {
	if email == nil {
		return nil, errors.New("notification service initialization error: email sender is nil")
	}
	return &BookingNotifier{Email: email, Push: push, Logger: logger}, nil
}

func (n *BookingNotifier) SendBookingConfirmation(ctx context.Context, booking models.Booking) error {
	subject, body := confirmationEmail(booking)
	if err := n.Email.Send(ctx, booking.ClientEmail, subject, body); err != nil {
		return fmt.Errorf("SendBookingConfirmation: email to %s failed: %w", booking.ClientEmail, err)
	}

	if n.Push != nil && booking.UserID != "" {
		if err := n.push(ctx, booking); err != nil {
			n.Logger.Warn("Booking push not delivered", zap.String("bookingID", booking.ID), zap.Error(err))
		}
	}
	return nil
}

// UserTopic is the FCM topic a client app subscribes to for its bookings.
func UserTopic(userID string) string {
	return "bookings-" + userID
}

func (n *BookingNotifier) push(ctx context.Context, booking models.Booking) error {
	msg := &messaging.Message{
		Topic: UserTopic(booking.UserID),
		Notification: &messaging.Notification{
			Title: "Session confirmed",
			Body:  fmt.Sprintf("Your %s session on %s is booked.", booking.SessionType, booking.StartTime.Format("Mon 2 Jan 15:04")),
		},
		Data: map[string]string{
			"bookingId": booking.ID,
			"startTime": booking.StartTime.Format(time.RFC3339),
			"role":      "user",
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	_, err := n.Push.Send(ctx, msg)
	return err
}

func confirmationEmail(b models.Booking) (string, string) {
	subject := fmt.Sprintf("Your %s session is confirmed", b.SessionType)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", b.ClientName)
	fmt.Fprintf(&sb, "Your %s session is booked for %s to %s.\n",
		b.SessionType, b.StartTime.Format("Monday 2 January 2006, 15:04"), b.EndTime.Format("15:04 MST"))
	fmt.Fprintf(&sb, "Booking reference: %s\n", b.ID)
	if b.ClientNotes != "" {
		fmt.Fprintf(&sb, "Your notes: %s\n", b.ClientNotes)
	}
	if b.ExternalRefs.VideoCallLink != "" {
		fmt.Fprintf(&sb, "Pre-shoot call: %s\n", b.ExternalRefs.VideoCallLink)
	}
	sb.WriteString("\nSee you at the studio.\n")
	return subject, sb.String()
}
