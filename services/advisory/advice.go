package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Advice is the result of a best-effort advisory lookup: either a value or
// the reason none is available. It never carries an error to the caller.
type Advice[T any] struct {
	Value     T
	Available bool
	Reason    string
}

func Some[T any](v T) Advice[T] {
	return Advice[T]{Value: v, Available: true}
}

func Unavailable[T any](reason string) Advice[T] {
	return Advice[T]{Reason: reason}
}

// MarshalJSON renders {"available":true,"data":...} or {"available":false}.
// The reason stays server side.
func (a Advice[T]) MarshalJSON() ([]byte, error) {
	if !a.Available {
		return []byte(`{"available":false}`), nil
	}
	return json.Marshal(struct {
		Available bool `json:"available"`
		Data      T    `json:"data"`
	}{true, a.Value})
}

const defaultTimeout = 3 * time.Second

type outcome[T any] struct {
	value T
	err   error
}

// Guard runs fn under timeout and turns every failure (error, panic or
// deadline) into Unavailable.
func Guard[T any](ctx context.Context, timeout time.Duration, logger *zap.Logger, name string, fn func(context.Context) (T, error)) Advice[T] {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome[T]{value: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			logger.Warn("Advisory lookup failed", zap.String("advisory", name), zap.Error(out.err))
			return Unavailable[T](out.err.Error())
		}
		return Some(out.value)
	case <-ctx.Done():
		logger.Warn("Advisory lookup timed out", zap.String("advisory", name), zap.Error(ctx.Err()))
		return Unavailable[T](ctx.Err().Error())
	}
}
