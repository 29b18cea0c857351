// Package breaker implements the circuit breaker gating every call to the
// remote telemetry API. A run of consecutive failures opens the circuit;
// while open, calls short-circuit without touching the network; after an
// adaptive cool-down a single trial call decides whether to close again.
package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/remote"
	"github.com/mpetrenko/telewatch/internal/stats"
)

// State of the circuit. String values match the wire casing.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

const (
	DefaultFailureThreshold = 5
	DefaultBaseCoolDown     = 60 * time.Second
	DefaultMaxCoolDown      = 15 * time.Minute
)

// CircuitOpenError is the synthetic failure returned when a call is refused.
// It carries how long until the next trial is admitted.
type CircuitOpenError struct {
	RetryIn time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker is open, retry in %s", e.RetryIn.Round(time.Millisecond))
}

// Kind classifies the short-circuit into the remote error taxonomy.
func (e *CircuitOpenError) Kind() remote.ErrorKind { return remote.KindCircuitOpen }

// Config holds breaker policy knobs.
type Config struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// circuit from closed.
	FailureThreshold int

	// BaseCoolDown is the initial open-state duration before a trial call
	// is admitted.
	BaseCoolDown time.Duration

	// MaxCoolDown caps the doubling applied after each failed trial.
	MaxCoolDown time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.FailureThreshold <= 0 {
		out.FailureThreshold = DefaultFailureThreshold
	}
	if out.BaseCoolDown <= 0 {
		out.BaseCoolDown = DefaultBaseCoolDown
	}
	if out.MaxCoolDown <= 0 {
		out.MaxCoolDown = DefaultMaxCoolDown
	}
	return out
}

// Snapshot is a consistent view of the breaker for diagnostics.
type Snapshot struct {
	State               State
	ConsecutiveFailures int
	CoolDown            time.Duration
	OpenedAt            time.Time
}

// CircuitBreaker serializes all state transitions behind one mutex; ticks,
// manual commands, and the daily reconnect can all enter concurrently.
type CircuitBreaker struct {
	mu sync.Mutex

	cfg    Config
	stats  *stats.ConnectionStats
	logger *zap.Logger
	clock  func() time.Time

	state               State
	consecutiveFailures int
	coolDown            time.Duration
	openedAt            time.Time
	trialInFlight       bool
}

// NewCircuitBreaker creates a closed breaker recording every outcome into
// the given stats.
func NewCircuitBreaker(cfg Config, st *stats.ConnectionStats, logger *zap.Logger) *CircuitBreaker {
	c := cfg.withDefaults()
	return &CircuitBreaker{
		cfg:      c,
		stats:    st,
		logger:   logger,
		clock:    time.Now,
		state:    StateClosed,
		coolDown: c.BaseCoolDown,
	}
}

// WithClock overrides the time source. Test hook.
func (b *CircuitBreaker) WithClock(clock func() time.Time) *CircuitBreaker {
	b.clock = clock
	return b
}

// Execute runs op through the breaker. When the circuit refuses the call, op
// is never invoked and a CircuitOpenError is returned; the refusal is
// recorded as a short-circuit outcome.
func (b *CircuitBreaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		// The operation never ran; record the refusal only.
		b.stats.RecordShortCircuit()
		return err
	}

	if err := b.admit(); err != nil {
		b.stats.RecordShortCircuit()
		b.logger.Warn("Circuit breaker refused call", zap.Error(err))
		return err
	}

	start := b.clock()
	err := op(ctx)
	latency := b.clock().Sub(start)

	b.settle(err, latency)
	return err
}

// State returns the current circuit state without advancing it.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a consistent view for diagnostics.
func (b *CircuitBreaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		CoolDown:            b.coolDown,
		OpenedAt:            b.openedAt,
	}
}

// admit decides whether a call may be dispatched, performing the
// open → half-open transition when the cool-down has elapsed.
func (b *CircuitBreaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		elapsed := b.clock().Sub(b.openedAt)
		if elapsed < b.coolDown {
			return &CircuitOpenError{RetryIn: b.coolDown - elapsed}
		}
		b.transition(StateHalfOpen)
		b.trialInFlight = true
		return nil

	case StateHalfOpen:
		if b.trialInFlight {
			// Exactly one trial is allowed; a concurrent caller is refused.
			return &CircuitOpenError{RetryIn: 0}
		}
		b.trialInFlight = true
		return nil
	}

	return nil
}

// settle records the outcome of a dispatched call and applies the resulting
// transition.
func (b *CircuitBreaker) settle(err error, latency time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.stats.RecordSuccess(latency)
		b.consecutiveFailures = 0
		if b.state == StateHalfOpen {
			b.trialInFlight = false
			b.coolDown = b.cfg.BaseCoolDown
			b.transition(StateClosed)
		}
		return
	}

	b.stats.RecordFailure(remote.KindOf(err))

	switch b.state {
	case StateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.openedAt = b.clock()
			b.transition(StateOpen)
		}

	case StateHalfOpen:
		// Failed trial: back to open with the cool-down doubled up to cap.
		b.trialInFlight = false
		b.consecutiveFailures++
		b.coolDown *= 2
		if b.coolDown > b.cfg.MaxCoolDown {
			b.coolDown = b.cfg.MaxCoolDown
		}
		b.openedAt = b.clock()
		b.transition(StateOpen)
	}
}

func (b *CircuitBreaker) transition(to State) {
	from := b.state
	b.state = to
	b.logger.Info("Circuit breaker state changed",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Duration("cool_down", b.coolDown),
		zap.Int("consecutive_failures", b.consecutiveFailures),
	)
}
