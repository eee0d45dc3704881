package sync

import (
	"context"
	"time"

	"github.com/jessemcnew/glippy/internal/errors"
)

// Retry policy for transient failures: up to three attempts with
// doubling delays of 1s, 2s, 4s. Terminal errors never retry.
const (
	maxAttempts = 3
	baseDelay   = time.Second
)

// withBackoff runs op, retrying transient errors with exponential
// delays. The sleep function is injected so tests run without waiting.
// Returns the last error once attempts are exhausted; a context
// cancellation during a delay returns immediately.
func withBackoff(ctx context.Context, attempts int, sleep func(time.Duration), op func() error) error {
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		last = op()
		if last == nil {
			return nil
		}
		if !errors.Retryable(last) {
			return last
		}
		if attempt == attempts {
			break
		}
		delay := baseDelay << (attempt - 1)
		if err := sleepCtx(ctx, delay, sleep); err != nil {
			return last
		}
	}
	return last
}

func sleepCtx(ctx context.Context, d time.Duration, sleep func(time.Duration)) error {
	if sleep != nil {
		sleep(d)
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
