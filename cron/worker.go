package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shutterbook/config"
	"shutterbook/models"
	"shutterbook/services/booking"
	"shutterbook/services/tasks"
	"shutterbook/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ConfirmationResender re-sends a booking confirmation.
type ConfirmationResender interface {
	ResendConfirmation(ctx context.Context, bookingID string) error
}

func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitConfirmationWorker runs the confirmation retry worker in the
// background. The returned server must be shut down by the caller.
func InitConfirmationWorker(resender ConfirmationResender) *asynq.Server {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				tasks.NotificationsQueue: 1,
			},
			RetryDelayFunc: func(n int, err error, t *asynq.Task) time.Duration {
				return time.Duration(1<<min(n, 6)) * time.Minute
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeConfirmationRetry, HandleConfirmationRetry(resender))

	go func() {
		logger.Info("Starting confirmation retry worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("Confirmation worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Confirmation worker giving up; failed confirmations will not be retried")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func HandleConfirmationRetry(resender ConfirmationResender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p models.ConfirmationRetryPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil || p.BookingID == "" {
			logger.Error("Invalid confirmation retry payload", zap.ByteString("payload", task.Payload()))
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}

		err := resender.ResendConfirmation(ctx, p.BookingID)
		switch {
		case err == nil:
			logger.Info("Confirmation re-sent", zap.String("bookingID", p.BookingID))
			return nil
		case errors.Is(err, booking.ErrBookingNotFound):
			logger.Warn("Dropping confirmation retry for missing booking", zap.String("bookingID", p.BookingID))
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		default:
			logger.Warn("Confirmation retry failed", zap.String("bookingID", p.BookingID), zap.Error(err))
			return err
		}
	}
}
