package notification

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shutterbook/models"
)

type fakeEmail struct {
	err  error
	to   []string
	body string
}

func (f *fakeEmail) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	f.body = body
	return nil
}

type fakePush struct {
	err  error
	msgs []*messaging.Message
}

func (f *fakePush) Send(ctx context.Context, message *messaging.Message) (string, error) {
	f.msgs = append(f.msgs, message)
	return "projects/x/messages/1", f.err
}

func sampleBooking() models.Booking {
	return models.Booking{
		ID:          "bk-1",
		UserID:      "user-1",
		StartTime:   time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2025, time.June, 3, 11, 0, 0, 0, time.UTC),
		SessionType: models.SessionPortrait,
		ClientName:  "Ada",
		ClientEmail: "ada@example.com",
		ClientNotes: "Bring the green dress",
	}
}

func TestSendBookingConfirmation(t *testing.T) {
	email := &fakeEmail{}
	push := &fakePush{err: errors.New("topic not found")}
	n, err := NewBookingNotifier(email, push, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, n.SendBookingConfirmation(context.Background(), sampleBooking()))

	assert.Equal(t, []string{"ada@example.com"}, email.to)
	assert.Contains(t, email.body, "bk-1")
	assert.Contains(t, email.body, "Bring the green dress")
	require.Len(t, push.msgs, 1, "push failure does not fail the confirmation")
	assert.Equal(t, "bookings-user-1", push.msgs[0].Topic)
	assert.Equal(t, "bk-1", push.msgs[0].Data["bookingId"])
}

func TestSendBookingConfirmation_EmailFailure(t *testing.T) {
	push := &fakePush{}
	n, err := NewBookingNotifier(&fakeEmail{err: errors.New("relay refused")}, push, zap.NewNop())
	require.NoError(t, err)

	err = n.SendBookingConfirmation(context.Background(), sampleBooking())

	assert.Error(t, err)
	assert.Empty(t, push.msgs)
}

func TestNewBookingNotifier_RequiresEmail(t *testing.T) {
	_, err := NewBookingNotifier(nil, nil, zap.NewNop())
	assert.Error(t, err)
}

// fakeSMTP accepts a single message and hands back the DATA section.
func fakeSMTP(t *testing.T) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { conn.Write([]byte(s + "\r\n")) }

		reply("220 fake ESMTP")
		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if inData {
				if line == "." {
					inData = false
					got <- data.String()
					reply("250 queued")
					continue
				}
				data.WriteString(line + "\n")
				continue
			}
			switch cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0]); cmd {
			case "EHLO", "HELO", "MAIL", "RCPT", "RSET", "NOOP":
				reply("250 ok")
			case "DATA":
				inData = true
				reply("354 go ahead")
			case "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 not implemented")
			}
		}
	}()

	return ln.Addr().String(), got
}

func TestSMTPSender(t *testing.T) {
	addr, got := fakeSMTP(t)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	sender := NewSMTPSender(host, port, "studio@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sender.Send(ctx, "ada@example.com", "Confirmed", "line one\nline two"))

	select {
	case msg := <-got:
		assert.Contains(t, msg, "To: ada@example.com")
		assert.Contains(t, msg, "Subject: Confirmed")
		assert.Contains(t, msg, "line two")
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestSMTPSender_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	host, port, _ := net.SplitHostPort(addr)

	err = NewSMTPSender(host, port, "").Send(context.Background(), "ada@example.com", "s", "b")

	assert.Error(t, err)
}

func TestBuildMessage_LineEndings(t *testing.T) {
	msg := buildMessage("studio@example.com", "ada@example.com", "Confirmed", "Notes: bring props\r\nand a hat\nThanks")

	assert.NotContains(t, msg, "\r\r\n")
	assert.Contains(t, msg, "\r\n\r\nNotes: bring props\r\nand a hat\r\nThanks\r\n")
	assert.Equal(t, strings.Count(msg, "\n"), strings.Count(msg, "\r\n"), "every newline is CRLF")
}
