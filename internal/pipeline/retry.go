package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// retryable is implemented by transport errors that are worth retrying.
type retryable interface {
	Retryable() bool
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var r retryable
	return errors.As(err, &r) && r.Retryable()
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// Retry calls fn up to MaxRetries times, sleeping with Backoff between
// attempts while fn returns a retryable error. The wait is cut short when ctx
// is cancelled.
func Retry[T any](ctx context.Context, log *slog.Logger, what string, fn func(context.Context) (T, error)) (T, error) {
	return retryWith(ctx, log, what, Backoff, fn)
}

func retryWith[T any](ctx context.Context, log *slog.Logger, what string, backoff func(int) time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var v T
	var lastErr error
	for attempt := range MaxRetries {
		v, lastErr = fn(ctx)
		if lastErr == nil || !IsRetryable(lastErr) {
			return v, lastErr
		}
		if attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable error", "op", what, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return v, ctx.Err()
		}
	}
	return v, lastErr
}
