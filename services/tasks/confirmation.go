package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shutterbook/models"

	"github.com/hibiken/asynq"
)

const (
	TypeConfirmationRetry = "booking:confirmation:retry"
	NotificationsQueue    = "notifications"
)

func NewConfirmationRetryTask(bookingID string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(models.ConfirmationRetryPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeConfirmationRetry, b)
	opts := []asynq.Option{
		asynq.Queue(NotificationsQueue),
		asynq.ProcessIn(time.Minute),
		asynq.MaxRetry(8),
		// One pending retry per booking.
		asynq.TaskID("confirmation:" + bookingID),
	}
	return task, opts, nil
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqRetryQueue schedules confirmation retries on the asynq queue.
type AsynqRetryQueue struct {
	client Enqueuer
}

func NewAsynqRetryQueue(client Enqueuer) *AsynqRetryQueue {
	return &AsynqRetryQueue{client: client}
}

func (q *AsynqRetryQueue) EnqueueConfirmationRetry(ctx context.Context, bookingID string) error {
	task, opts, err := NewConfirmationRetryTask(bookingID)
	if err != nil {
		return err
	}
	_, err = q.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}
