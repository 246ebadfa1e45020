package collector

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BackoffPolicy maps an attempt number to the wait before the next attempt.
// Attempt 0 waits Base, attempt 1 waits 2*Base, and so on.
type BackoffPolicy struct {
	MaxAttempts int
	Base        time.Duration
	MaxDelay    time.Duration // zero means uncapped
}

func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts: 3,
		Base:        1 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := p.Base << uint(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry runs fn up to MaxAttempts times, sleeping Delay(attempt) between
// failed attempts. It returns the number of attempts made and the last error.
func Retry(ctx context.Context, p BackoffPolicy, sleep Sleeper, fn func(attempt int) error) (int, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, fmt.Errorf("retry cancelled: %w", errors.Join(lastErr, err))
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return attempt + 1, nil
		}

		// No wait after the final attempt
		if attempt < p.MaxAttempts-1 {
			if err := sleep(ctx, p.Delay(attempt)); err != nil {
				// Keep the transport error alongside the cancellation
				return attempt + 1, fmt.Errorf("retry cancelled: %w", errors.Join(lastErr, err))
			}
		}
	}
	return p.MaxAttempts, lastErr
}
