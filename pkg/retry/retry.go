package retry

import (
	"context"
	"errors"
	"net"
	"time"
)

const (
	// DefaultMaxAttempts bounds how many times an operation runs in total.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is multiplied by the attempt number between runs.
	DefaultBaseDelay = 2 * time.Second
)

// Config tunes the executor. Zero values fall back to the defaults.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Executor reruns transient failures with a linear backoff. Errors that are
// not transient abort immediately and surface to the caller unchanged.
type Executor struct {
	cfg     Config
	sleep   func(ctx context.Context, delay time.Duration) error
	onRetry func(attempt int, err error)
}

// Option customizes an Executor.
type Option func(*Executor)

// WithOnRetry installs a callback invoked before each rerun.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(e *Executor) {
		e.onRetry = fn
	}
}

// withSleep overrides the backoff sleeper, used by tests.
func withSleep(fn func(ctx context.Context, delay time.Duration) error) Option {
	return func(e *Executor) {
		e.sleep = fn
	}
}

// New builds an Executor from the provided config.
func New(cfg Config, opts ...Option) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	exec := &Executor{
		cfg:   cfg,
		sleep: sleepWithContext,
	}
	for _, opt := range opts {
		opt(exec)
	}
	return exec
}

// Do runs op until it succeeds, fails with a non-transient error, or the
// attempt budget is exhausted. The delay before attempt n+1 is BaseDelay*n.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == e.cfg.MaxAttempts {
			break
		}

		if e.onRetry != nil {
			e.onRetry(attempt, lastErr)
		}
		if err := e.sleep(ctx, e.cfg.BaseDelay*time.Duration(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

type transientError struct {
	err error
}

func (t *transientError) Error() string {
	return t.err.Error()
}

func (t *transientError) Unwrap() error {
	return t.err
}

// Transient marks err as retryable. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err should be retried. Network level failures
// count as transient even without an explicit marker.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var marked *transientError
	if errors.As(err, &marked) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
