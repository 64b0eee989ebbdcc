package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (

	// Default number of attempts for a transient publish failure.
	defaultRetryAttempts = 3

	// Default initial backoff between attempts; doubles each retry.
	defaultRetryBackoff = 2 * time.Second
)

// Runs op up to attempts times, backing off between tries.
//
// Only errors the retryable predicate accepts are retried; anything else
// (permission refusals, validation errors) surfaces immediately because
// repeating the call cannot change the outcome. The final error is
// returned when attempts are exhausted.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, retryable func(error) bool, op func() error) error {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		slog.Warn("transient failure, retrying",
			"attempt", attempt,
			"of", attempts,
			"backoff", backoff,
			"error", err.Error(),
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %w)", ctx.Err(), err)
		}
		backoff *= 2
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
