package breaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/breaker"
	"github.com/mpetrenko/telewatch/internal/remote"
	"github.com/mpetrenko/telewatch/internal/stats"
)

// fakeClock advances only when told to, so cool-down windows are exact.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newBreaker(t *testing.T, cfg breaker.Config) (*breaker.CircuitBreaker, *stats.ConnectionStats, *fakeClock) {
	t.Helper()
	st := stats.NewConnectionStats(50)
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	b := breaker.NewCircuitBreaker(cfg, st, zap.NewNop()).WithClock(clock.Now)
	return b, st, clock
}

var errRemote = errors.New("remote unreachable")

func failOp(ctx context.Context) error { return errRemote }

func okOp(ctx context.Context) error { return nil }

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	b, st, _ := newBreaker(t, breaker.Config{
		FailureThreshold: 5,
		BaseCoolDown:     time.Minute,
		MaxCoolDown:      15 * time.Minute,
	})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		assert.Error(t, b.Execute(ctx, failOp))
		assert.Equal(t, breaker.StateClosed, b.State())
	}

	assert.Error(t, b.Execute(ctx, failOp))
	assert.Equal(t, breaker.StateOpen, b.State())
	assert.Equal(t, int64(5), st.Snapshot().FailureCount)
}

func TestCircuitBreaker_ShortCircuitsWhileOpen(t *testing.T) {
	b, st, clock := newBreaker(t, breaker.Config{
		FailureThreshold: 2,
		BaseCoolDown:     time.Minute,
		MaxCoolDown:      15 * time.Minute,
	})

	ctx := context.Background()
	require.Error(t, b.Execute(ctx, failOp))
	require.Error(t, b.Execute(ctx, failOp))
	require.Equal(t, breaker.StateOpen, b.State())

	clock.Advance(30 * time.Second)

	called := false
	err := b.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})

	var openErr *breaker.CircuitOpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, 30*time.Second, openErr.RetryIn)
	assert.False(t, called)

	snap := st.Snapshot()
	assert.Equal(t, int64(1), snap.ShortCircuitCount)
	// Refusals never ran, so the streak stays where the failures left it.
	assert.Equal(t, 2, snap.ConsecutiveFailures)
}

func TestCircuitBreaker_TrialSuccessCloses(t *testing.T) {
	b, st, clock := newBreaker(t, breaker.Config{
		FailureThreshold: 2,
		BaseCoolDown:     time.Minute,
		MaxCoolDown:      15 * time.Minute,
	})

	ctx := context.Background()
	require.Error(t, b.Execute(ctx, failOp))
	require.Error(t, b.Execute(ctx, failOp))

	clock.Advance(time.Minute)

	assert.NoError(t, b.Execute(ctx, okOp))
	assert.Equal(t, breaker.StateClosed, b.State())
	assert.Equal(t, 0, st.ConsecutiveFailures())

	// Cool-down resets to base after a successful trial.
	assert.Equal(t, time.Minute, b.Snapshot().CoolDown)
}

func TestCircuitBreaker_FailedTrialDoublesCoolDown(t *testing.T) {
	b, _, clock := newBreaker(t, breaker.Config{
		FailureThreshold: 2,
		BaseCoolDown:     time.Minute,
		MaxCoolDown:      3 * time.Minute,
	})

	ctx := context.Background()
	require.Error(t, b.Execute(ctx, failOp))
	require.Error(t, b.Execute(ctx, failOp))
	require.Equal(t, breaker.StateOpen, b.State())

	// First failed trial: 1m -> 2m.
	clock.Advance(time.Minute)
	require.Error(t, b.Execute(ctx, failOp))
	assert.Equal(t, breaker.StateOpen, b.State())
	assert.Equal(t, 2*time.Minute, b.Snapshot().CoolDown)

	// Second failed trial: 2m -> 4m capped at 3m.
	clock.Advance(2 * time.Minute)
	require.Error(t, b.Execute(ctx, failOp))
	assert.Equal(t, 3*time.Minute, b.Snapshot().CoolDown)

	// Not yet elapsed: still refused.
	clock.Advance(2 * time.Minute)
	var openErr *breaker.CircuitOpenError
	assert.ErrorAs(t, b.Execute(ctx, failOp), &openErr)
	assert.Equal(t, time.Minute, openErr.RetryIn)
}

func TestCircuitBreaker_SingleTrialInHalfOpen(t *testing.T) {
	b, st, clock := newBreaker(t, breaker.Config{
		FailureThreshold: 1,
		BaseCoolDown:     time.Minute,
		MaxCoolDown:      15 * time.Minute,
	})

	ctx := context.Background()
	require.Error(t, b.Execute(ctx, failOp))
	require.Equal(t, breaker.StateOpen, b.State())

	clock.Advance(time.Minute)

	trialStarted := make(chan struct{})
	release := make(chan struct{})
	trialDone := make(chan error, 1)

	go func() {
		trialDone <- b.Execute(ctx, func(ctx context.Context) error {
			close(trialStarted)
			<-release
			return nil
		})
	}()

	<-trialStarted
	require.Equal(t, breaker.StateHalfOpen, b.State())

	// A concurrent call while the trial is in flight is refused.
	var openErr *breaker.CircuitOpenError
	assert.ErrorAs(t, b.Execute(ctx, okOp), &openErr)

	close(release)
	assert.NoError(t, <-trialDone)
	assert.Equal(t, breaker.StateClosed, b.State())
	assert.Equal(t, int64(1), st.Snapshot().ShortCircuitCount)
}

func TestCircuitBreaker_CanceledContextNeverDispatches(t *testing.T) {
	b, st, _ := newBreaker(t, breaker.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := b.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, int64(1), st.Snapshot().ShortCircuitCount)
	assert.Equal(t, breaker.StateClosed, b.State())
}

func TestCircuitBreaker_ErrorKindClassification(t *testing.T) {
	b, st, _ := newBreaker(t, breaker.Config{FailureThreshold: 10})

	ctx := context.Background()
	require.Error(t, b.Execute(ctx, func(ctx context.Context) error {
		return &remote.AuthError{Op: "login", Err: errors.New("401")}
	}))
	require.Error(t, b.Execute(ctx, func(ctx context.Context) error {
		return &remote.NetworkError{Op: "fetch", Err: errors.New("refused")}
	}))

	byKind := st.Snapshot().FailuresByKind
	assert.Equal(t, int64(1), byKind[remote.KindAuth])
	assert.Equal(t, int64(1), byKind[remote.KindNetwork])
}

func TestCircuitOpenError_Kind(t *testing.T) {
	err := &breaker.CircuitOpenError{RetryIn: 30 * time.Second}
	assert.Equal(t, remote.KindCircuitOpen, remote.KindOf(err))
	assert.Contains(t, err.Error(), "30s")
}
