// Package retry runs an operation repeatedly until it succeeds or the
// attempt budget is spent.
package retry

import (
	"context"
	"fmt"
	"time"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // double the delay after every failed attempt
}

// backoffDelay returns how long to wait after the given failed attempt:
// Delay * 2^(attempt-1) with Backoff, a flat Delay without.
func backoffDelay(cfg Config, attempt int) time.Duration {
	if !cfg.Backoff {
		return cfg.Delay
	}
	return cfg.Delay << (attempt - 1)
}

// Do calls fn until it returns nil, waiting between attempts. The final
// failure is wrapped; a canceled context wins over the remaining budget.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= cfg.MaxAttempts {
			return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay(cfg, attempt)):
		}
	}
}
