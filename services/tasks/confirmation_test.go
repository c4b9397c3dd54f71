package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shutterbook/models"
)

type fakeEnqueuer struct {
	err   error
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "confirmation:bk-1", Queue: NotificationsQueue}, nil
}

func TestEnqueueConfirmationRetry(t *testing.T) {
	enq := &fakeEnqueuer{}
	q := NewAsynqRetryQueue(enq)

	require.NoError(t, q.EnqueueConfirmationRetry(context.Background(), "bk-1"))

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeConfirmationRetry, enq.tasks[0].Type())
	var p models.ConfirmationRetryPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &p))
	assert.Equal(t, "bk-1", p.BookingID)
}

func TestEnqueueConfirmationRetry_Errors(t *testing.T) {
	assert.NoError(t, NewAsynqRetryQueue(&fakeEnqueuer{err: asynq.ErrTaskIDConflict}).
		EnqueueConfirmationRetry(context.Background(), "bk-1"), "duplicate retry is already scheduled")

	assert.Error(t, NewAsynqRetryQueue(&fakeEnqueuer{err: errors.New("redis down")}).
		EnqueueConfirmationRetry(context.Background(), "bk-1"))
}
