// Package retry wraps local store access with a bounded retry policy for
// transient storage faults.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/voyago/tripsync/internal/storage"
)

const (
	// DefaultAttempts bounds how many times an operation is tried.
	DefaultAttempts = 3

	// DefaultDelay is the pause between attempts.
	DefaultDelay = 1000 * time.Millisecond
)

// Config tunes the retry policy. Zero values fall back to the defaults.
type Config struct {
	Attempts int
	Delay    time.Duration
}

// Runner executes store operations with bounded retries. Before the first
// attempt it blocks on the store's readiness signal, so callers never poll
// a store that is still initializing. After the attempts are exhausted the
// last error is wrapped in storage.UnavailableError with OfflineMode set,
// letting read paths degrade to empty results and write paths stay queued.
type Runner struct {
	ready    <-chan struct{}
	attempts int
	delay    time.Duration
	log      *slog.Logger

	// sleep is swapped out in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Runner gated on the given readiness signal.
func New(ready <-chan struct{}, cfg Config) *Runner {
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	return &Runner{
		ready:    ready,
		attempts: cfg.Attempts,
		delay:    cfg.Delay,
		log:      slog.Default(),
		sleep:    sleepCtx,
	}
}

// Execute runs fn, retrying transient failures. Permanent outcomes
// (context cancellation, missing records) are returned immediately.
func (r *Runner) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case <-r.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}

		lastErr = err
		if attempt < r.attempts {
			r.log.Warn("storage operation failed, retrying",
				"attempt", attempt,
				"max_attempts", r.attempts,
				"error", err,
			)
			if serr := r.sleep(ctx, r.delay); serr != nil {
				return serr
			}
		}
	}

	r.log.Error("storage operation failed, degrading to offline mode",
		"attempts", r.attempts,
		"error", lastErr,
	)
	return &storage.UnavailableError{OfflineMode: true, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
