// Package retry wraps fallible operations with bounded exponential-backoff
// retries.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config controls retry behavior.
type Config struct {
	// Tries is the total number of attempts, including the first.
	Tries int
	// Delay is the wait before the second attempt.
	Delay time.Duration
	// Backoff multiplies the delay after each failed attempt.
	Backoff float64
	// MaxInterval caps the delay between attempts. Zero means no cap.
	MaxInterval time.Duration
}

// DefaultConfig returns the retry settings used for storage operations.
func DefaultConfig() Config {
	return Config{Tries: 3, Delay: 2 * time.Second, Backoff: 1}
}

// ExhaustedError reports that every attempt failed. It wraps the error
// from the last attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do runs op up to cfg.Tries times, sleeping between attempts, and returns
// op's first successful result. After the final failure it returns an
// *ExhaustedError wrapping the last error. Context cancellation propagates
// immediately, both between attempts and while sleeping.
func Do[T any](ctx context.Context, cfg Config, logger *slog.Logger, op func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var zero T
	var lastErr error
	delay := cfg.Delay

	for attempt := 1; attempt <= cfg.Tries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		logger.Debug("attempting operation", "attempt", attempt, "tries", cfg.Tries)
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == cfg.Tries {
			break
		}

		wait := delay
		if cfg.MaxInterval > 0 && wait > cfg.MaxInterval {
			wait = cfg.MaxInterval
		}
		logger.Error("operation failed, will retry",
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
		delay = time.Duration(float64(delay) * cfg.Backoff)
	}

	return zero, &ExhaustedError{Attempts: cfg.Tries, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
