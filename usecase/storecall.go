package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fastygo/collab/domain"
)

// DefaultCallTimeout bounds a single repository call when none is configured.
const DefaultCallTimeout = 5 * time.Second

// Call runs one repository operation under its own deadline. A call that runs
// out of time, or fails with an unclassified error, surfaces as a retryable
// UNAVAILABLE domain error. Cancellation of ctx itself is returned unchanged.
func Call(ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) error) error {
	_, err := Fetch(ctx, timeout, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Fetch is Call for operations that return a value.
func Fetch[T any](ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := fn(callCtx)
	if err == nil {
		return out, nil
	}
	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return zero, domain.WrapError(domain.ErrCodeUnavailable, op+": timed out", err)
	}
	return zero, domain.Unavailable(op, err)
}
