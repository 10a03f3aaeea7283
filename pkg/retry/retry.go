// Package retry runs operations against flaky external services with a
// bounded, linearly escalating delay. Errors are classified by type rather
// than by message text.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Class tells the policy what to do after a failed attempt
type Class int

const (
	// Transient errors are retried after the escalating delay
	Transient Class = iota
	// RateLimited errors are retried after the rate limit delay
	RateLimited
	// Fatal errors are returned immediately
	Fatal
)

func (c Class) String() string {
	switch c {
	case RateLimited:
		return "rate-limited"
	case Fatal:
		return "fatal"
	default:
		return "transient"
	}
}

type classified struct {
	class Class
	err   error
}

func (c *classified) Error() string { return c.err.Error() }
func (c *classified) Unwrap() error { return c.err }

// Mark attaches a class to err. Mark(nil, ...) returns nil.
func Mark(err error, class Class) error {
	if err == nil {
		return nil
	}
	return &classified{class: class, err: err}
}

// ClassOf returns the class attached by Mark anywhere in the chain.
// Context cancellation is Fatal; unmarked errors are Transient.
func ClassOf(err error) Class {
	var c *classified
	if errors.As(err, &c) {
		return c.class
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fatal
	}
	return Transient
}

// ExhaustedError is returned when every attempt failed
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Sleep waits for d or until ctx is done
var Sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy describes how many times and how long to wait between attempts
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	RateLimitDelay time.Duration
	// Classify overrides ClassOf when set
	Classify func(error) Class
	Logger   *slog.Logger
}

// DefaultPolicy returns three attempts with 5s, 10s waits and 30s on rate limits
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      5 * time.Second,
		RateLimitDelay: 30 * time.Second,
	}
}

// Delay returns the wait after the given 1-based attempt failed with class
func (p Policy) Delay(attempt int, class Class) time.Duration {
	if class == RateLimited {
		return p.RateLimitDelay
	}
	return p.BaseDelay * time.Duration(attempt)
}

func (p Policy) classify(err error) Class {
	if p.Classify != nil {
		return p.Classify(err)
	}
	return ClassOf(err)
}

// Do calls op until it succeeds, fails fatally or runs out of attempts
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = op(ctx)
		if err == nil {
			return nil
		}

		class := p.classify(err)
		if class == Fatal {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := p.Delay(attempt, class)
		logger.Warn("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"class", class.String(),
			"delay", delay,
			"error", err)
		if sleepErr := Sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}

	return &ExhaustedError{Attempts: attempts, Err: err}
}
