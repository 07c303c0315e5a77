package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/service"
)

var (
	// ErrRateLimit means the remote side asked us to slow down.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries means every attempt failed with a transient error.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError marks Err as transient. A positive After is the minimum wait the
// remote side requested before the next attempt.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as transient.
func Retryable(err error) error {
	return &RetryableError{Err: err}
}

// RetryAfter marks err as transient and asks for at least d before the next attempt.
func RetryAfter(err error, d time.Duration) error {
	return &RetryableError{Err: err, After: d}
}

// IsRetryable reports whether another attempt could succeed.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re) ||
		errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded)
}

func retryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 1 {
		opts.Multiplier = 2
	}
	return opts
}

// nextDelay grows delay geometrically, raises it to any wait the error requested
// and caps the result at opts.MaxDelay.
func nextDelay(delay time.Duration, err error, opts service.RetryOptions) time.Duration {
	var re *RetryableError
	if errors.As(err, &re) && re.After > delay {
		delay = re.After
	}
	return min(delay, opts.MaxDelay)
}

// WithRetry runs op until it succeeds, fails permanently, exhausts
// opts.MaxAttempts or ctx ends. Zero fields of opts take defaults.
func WithRetry(ctx context.Context, opts service.RetryOptions, op func() error) error {
	opts = retryDefaults(opts)
	backoff := opts.InitialDelay

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, attempt, err)
		}

		wait := nextDelay(backoff, err, opts)
		slog.Warn("Transient failure, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"wait", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = time.Duration(float64(backoff) * opts.Multiplier)
	}
}
