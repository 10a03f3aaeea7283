package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleeps replaces Sleep for the duration of the test
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := Sleep
	Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	t.Cleanup(func() { Sleep = orig })
	return &slept
}

func TestClassOf(t *testing.T) {
	base := errors.New("boom")

	assert.Equal(t, Transient, ClassOf(base))
	assert.Equal(t, RateLimited, ClassOf(Mark(base, RateLimited)))
	assert.Equal(t, Fatal, ClassOf(fmt.Errorf("wrapped: %w", Mark(base, Fatal))))
	assert.Equal(t, Fatal, ClassOf(context.Canceled))
	assert.Equal(t, Fatal, ClassOf(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.Nil(t, Mark(nil, Fatal))
	assert.ErrorIs(t, Mark(base, Transient), base)
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	slept := recordSleeps(t)

	calls := 0
	err := DefaultPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, *slept)
}

func TestDoRateLimitDelay(t *testing.T) {
	slept := recordSleeps(t)

	calls := 0
	err := DefaultPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return Mark(errors.New("429"), RateLimited)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Second}, *slept)
}

func TestDoExhausted(t *testing.T) {
	slept := recordSleeps(t)
	cause := errors.New("still down")

	calls := 0
	err := DefaultPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return cause
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls)
	// No wait after the final attempt
	assert.Len(t, *slept, 2)
}

func TestDoFatalStopsImmediately(t *testing.T) {
	slept := recordSleeps(t)
	cause := Mark(errors.New("bad request"), Fatal)

	calls := 0
	err := DefaultPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return cause
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestDoCustomClassifier(t *testing.T) {
	recordSleeps(t)

	p := DefaultPolicy()
	p.Classify = func(error) Class { return Fatal }

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("anything")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursCancellation(t *testing.T) {
	recordSleeps(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := DefaultPolicy().Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("temporary")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("x")
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, calls)
}

func TestSleepReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
