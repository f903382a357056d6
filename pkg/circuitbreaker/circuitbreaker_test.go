package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(clock *fakeClock, transitions *[]string) *CircuitBreaker {
	return New(Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		OpenTimeout:         10 * time.Second,
		HalfOpenMaxRequests: 1,
	},
		WithClock(clock.Now),
		WithStateChange(func(from, to State) {
			*transitions = append(*transitions, from.String()+"->"+to.String())
		}),
	)
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Execute(func() error { return errBoom })
	require.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return errBoom })

	assert.Equal(t, StateClosed, cb.State())
	assert.Empty(t, transitions)
}

func TestHalfOpenProbeClosesOnSuccess(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(11 * time.Second)
	require.NoError(t, cb.Execute(func() error { return nil }))

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestHalfOpenProbeReopensOnFailure(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return errBoom })
	clock.Advance(11 * time.Second)

	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitBreakerOpen)
}

func TestHalfOpenLimitsConcurrentProbes(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return errBoom })
	clock.Advance(11 * time.Second)

	var inner error
	err := cb.Execute(func() error {
		inner = cb.Execute(func() error { return nil })
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrCircuitBreakerOpen)
}

func TestAbandonedCallsAreNotCounted(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		err := cb.ExecuteContext(ctx, func() error { return context.Canceled })
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Empty(t, transitions)

	// a live context still counts failures
	_ = cb.ExecuteContext(context.Background(), func() error { return errBoom })
	_ = cb.ExecuteContext(context.Background(), func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())
}

func TestAbandonedHalfOpenProbeFreesSlot(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return errBoom })
	clock.Advance(11 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = cb.ExecuteContext(ctx, func() error { return context.Canceled })
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestResetCloses(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Execute(func() error { return errBoom })
	_ = cb.Execute(func() error { return errBoom })
	cb.Reset()

	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Execute(func() error { return nil }))
}

func TestNewAppliesDefaults(t *testing.T) {
	cb := New(Config{})
	assert.Equal(t, DefaultConfig(), cb.cfg)
}
