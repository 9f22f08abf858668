package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/gspan/internal/export"
)

// MaxRetries bounds the number of fetch attempts per document.
const MaxRetries = 3

const (
	baseDelay = time.Second
	maxDelay  = 30 * time.Second
)

// IsRetryable reports whether err wraps a transient export failure.
// Cancellation is never retried.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var retryErr *export.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the delay before retry attempt n (0-indexed): baseDelay
// doubled per attempt, capped at maxDelay, plus up to 50% jitter.
func Backoff(attempt int) time.Duration {
	d := maxDelay
	if attempt < 0 {
		attempt = 0
	}
	if attempt < 6 {
		d = min(baseDelay<<attempt, maxDelay)
	}
	return d + rand.N(d/2)
}

// retry calls fn until it succeeds, fails permanently, or MaxRetries
// attempts are spent. It returns the last error.
func retry(ctx context.Context, wait func(int) time.Duration, onRetry func(int, error), fn func() error) error {
	var err error
	for attempt := range MaxRetries {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == MaxRetries-1 {
			break
		}
		onRetry(attempt, err)
		select {
		case <-time.After(wait(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
