package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitBreakerOpen is returned by Execute while calls are being rejected.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// State is the breaker state.
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls are rejected
	StateHalfOpen              // a few probe calls pass through
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config tunes when the breaker trips and recovers.
type Config struct {
	// Consecutive failures in closed state before opening.
	FailureThreshold int
	// Successful probes in half-open state before closing.
	SuccessThreshold int
	// How long the breaker stays open before probing.
	OpenTimeout time.Duration
	// Concurrent probes allowed while half-open.
	HalfOpenMaxRequests int
}

// DefaultConfig suits a single remote model endpoint.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		OpenTimeout:         30 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}

// Option customises a breaker.
type Option func(*CircuitBreaker)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// WithStateChange registers a callback invoked on every transition. It runs
// with the breaker lock held and must not call back into the breaker.
func WithStateChange(fn func(from, to State)) Option {
	return func(cb *CircuitBreaker) { cb.onChange = fn }
}

// CircuitBreaker guards calls to an unreliable dependency.
type CircuitBreaker struct {
	cfg      Config
	now      func() time.Time
	onChange func(from, to State)

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	inFlight  int
	openedAt  time.Time
	// generation changes on every transition so late results from an
	// earlier state are ignored.
	generation uint64
}

// New creates a closed breaker. Zero config fields take DefaultConfig values.
func New(cfg Config, opts ...Option) *CircuitBreaker {
	def := DefaultConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = def.HalfOpenMaxRequests
	}

	cb := &CircuitBreaker{cfg: cfg, now: time.Now, state: StateClosed}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Execute runs fn unless the breaker is open. fn's error is returned as is.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	return cb.ExecuteContext(context.Background(), fn)
}

// ExecuteContext is Execute for calls made on behalf of ctx. When fn fails
// after ctx itself ended, the outcome is not counted: an abandoned call says
// nothing about the health of the remote side.
func (cb *CircuitBreaker) ExecuteContext(ctx context.Context, fn func() error) error {
	gen, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if gen != cb.generation {
		return err
	}
	if cb.state == StateHalfOpen {
		cb.inFlight--
	}
	switch {
	case err == nil:
		cb.onSuccess()
	case ctx.Err() != nil:
		// caller gave up
	default:
		cb.onFailure()
	}
	return err
}

func (cb *CircuitBreaker) admit() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.transition(StateHalfOpen)
	}

	switch cb.state {
	case StateOpen:
		return 0, ErrCircuitBreakerOpen
	case StateHalfOpen:
		if cb.inFlight >= cb.cfg.HalfOpenMaxRequests {
			return 0, ErrCircuitBreakerOpen
		}
		cb.inFlight++
	}
	return cb.generation, nil
}

func (cb *CircuitBreaker) onFailure() {
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transition(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.inFlight = 0
	cb.generation++
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	if cb.onChange != nil && from != to {
		cb.onChange(from, to)
	}
}

// State returns the current state. An open breaker whose timeout elapsed is
// still reported open until the next Execute.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
}
