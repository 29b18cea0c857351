package recovery_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/api"
	"github.com/mpetrenko/telewatch/internal/breaker"
	"github.com/mpetrenko/telewatch/internal/models"
	"github.com/mpetrenko/telewatch/internal/recovery"
	"github.com/mpetrenko/telewatch/internal/remote"
	"github.com/mpetrenko/telewatch/internal/stats"
)

type fakeClient struct {
	mu         sync.Mutex
	resetErr   error
	authErr    error
	fetchErr   error
	reading    *models.Reading
	resetCalls int
	authCalls  int
	fetchCalls int
	blockReset chan struct{}
}

func (c *fakeClient) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authCalls++
	return c.authErr
}

func (c *fakeClient) FetchReading(ctx context.Context) (*models.Reading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchCalls++
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.reading, nil
}

func (c *fakeClient) UpdateSettings(ctx context.Context, settings models.Settings) error {
	return nil
}

func (c *fakeClient) Reset(ctx context.Context) error {
	c.mu.Lock()
	block := c.blockReset
	c.resetCalls++
	err := c.resetErr
	c.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (c *fakeClient) Close() {}

func (c *fakeClient) calls() (reset, auth, fetch int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetCalls, c.authCalls, c.fetchCalls
}

func (c *fakeClient) setFetchErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchErr = err
}

type fakeSink struct {
	mu       sync.Mutex
	states   []api.HealthState
	triggers []models.TriggerReason
}

func (s *fakeSink) SetState(state api.HealthState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
}

func (s *fakeSink) NoteTrigger(reason models.TriggerReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, reason)
}

func (s *fakeSink) seen() []api.HealthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.HealthState, len(s.states))
	copy(out, s.states)
	return out
}

type fakeReadings struct {
	mu       sync.Mutex
	accepted []*models.Reading
}

func (r *fakeReadings) AcceptRecovered(reading *models.Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted = append(r.accepted, reading)
}

func (r *fakeReadings) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accepted)
}

type failureNote struct {
	attempt int
	stage   string
	retryIn time.Duration
}

type fakeNotifier struct {
	mu        sync.Mutex
	started   int
	succeeded int
	failures  []failureNote
}

func (n *fakeNotifier) RecoveryStarted(reason models.TriggerReason, attempt int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started++
}

func (n *fakeNotifier) RecoverySucceeded(attempt int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.succeeded++
}

func (n *fakeNotifier) RecoveryFailed(attempt int, stage string, retryIn time.Duration, cause error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, failureNote{attempt: attempt, stage: stage, retryIn: retryIn})
}

func (n *fakeNotifier) failed() []failureNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]failureNote, len(n.failures))
	copy(out, n.failures)
	return out
}

type harness struct {
	orchestrator *recovery.Orchestrator
	client       *fakeClient
	sink         *fakeSink
	readings     *fakeReadings
	notifier     *fakeNotifier
}

func newHarness(t *testing.T, cfg recovery.Config) *harness {
	t.Helper()

	client := &fakeClient{reading: &models.Reading{StateOfCharge: 55, FetchedAt: time.Now()}}
	sink := &fakeSink{}
	readings := &fakeReadings{}
	notifier := &fakeNotifier{}

	st := stats.NewConnectionStats(50)
	cb := breaker.NewCircuitBreaker(breaker.Config{FailureThreshold: 100}, st, zap.NewNop())

	o, err := recovery.NewOrchestrator(cfg, client, cb, sink, readings, notifier, nil, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, o.Start(context.Background()))
	t.Cleanup(o.Stop)

	return &harness{
		orchestrator: o,
		client:       client,
		sink:         sink,
		readings:     readings,
		notifier:     notifier,
	}
}

func waitIdle(t *testing.T, o *recovery.Orchestrator) {
	t.Helper()
	require.Eventually(t, func() bool { return !o.Active() }, 2*time.Second, 5*time.Millisecond)
}

func TestOrchestrator_SuccessfulCycle(t *testing.T) {
	h := newHarness(t, recovery.Config{BaseDelay: time.Hour})

	assert.True(t, h.orchestrator.Trigger(models.TriggerManual))

	require.Eventually(t, func() bool { return h.readings.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	waitIdle(t, h.orchestrator)

	reset, auth, fetch := h.client.calls()
	assert.Equal(t, 1, reset)
	assert.Equal(t, 1, auth)
	assert.Equal(t, 1, fetch)

	// Success wipes the failure bookkeeping.
	assert.Equal(t, 0, h.orchestrator.AttemptNumber())
	assert.Empty(t, h.orchestrator.History())
	_, pending := h.orchestrator.NextRetryAt()
	assert.False(t, pending)

	states := h.sink.seen()
	require.Len(t, states, 2)
	assert.Equal(t, api.Recovering, states[0])
	assert.Equal(t, api.Healthy, states[1])
}

func TestOrchestrator_FailedCycleSchedulesDoublingRetry(t *testing.T) {
	h := newHarness(t, recovery.Config{BaseDelay: 50 * time.Millisecond, MaxDelay: time.Minute})
	h.client.setFetchErr(&remote.NetworkError{Op: "fetch", Err: errors.New("unreachable")})

	assert.True(t, h.orchestrator.Trigger(models.TriggerStaleness))

	// The retry timer fires the second attempt on its own.
	require.Eventually(t, func() bool { return len(h.notifier.failed()) >= 2 }, 3*time.Second, 5*time.Millisecond)

	failures := h.notifier.failed()
	assert.Equal(t, 1, failures[0].attempt)
	assert.Equal(t, recovery.StateVerifying, failures[0].stage)
	assert.Equal(t, 50*time.Millisecond, failures[0].retryIn)

	assert.Equal(t, 2, failures[1].attempt)
	assert.Equal(t, 100*time.Millisecond, failures[1].retryIn)
}

func TestOrchestrator_SuccessAfterFailuresResetsBackoff(t *testing.T) {
	h := newHarness(t, recovery.Config{BaseDelay: 50 * time.Millisecond, MaxDelay: time.Minute})
	h.client.setFetchErr(&remote.NetworkError{Op: "fetch", Err: errors.New("unreachable")})

	assert.True(t, h.orchestrator.Trigger(models.TriggerStaleness))
	require.Eventually(t, func() bool { return len(h.notifier.failed()) >= 2 }, 3*time.Second, 5*time.Millisecond)

	h.client.setFetchErr(nil)
	require.Eventually(t, func() bool { return h.readings.count() == 1 }, 3*time.Second, 5*time.Millisecond)
	waitIdle(t, h.orchestrator)

	assert.Equal(t, 0, h.orchestrator.AttemptNumber())
	assert.Empty(t, h.orchestrator.History())

	// The next failure starts over at the base delay.
	h.client.setFetchErr(&remote.NetworkError{Op: "fetch", Err: errors.New("unreachable")})
	before := len(h.notifier.failed())
	assert.True(t, h.orchestrator.Trigger(models.TriggerManual))
	require.Eventually(t, func() bool { return len(h.notifier.failed()) > before }, 2*time.Second, 5*time.Millisecond)

	failures := h.notifier.failed()
	assert.Equal(t, 50*time.Millisecond, failures[before].retryIn)
	assert.Equal(t, 1, failures[before].attempt)
}

func TestOrchestrator_TriggerDuringActiveCycleIsNoOp(t *testing.T) {
	h := newHarness(t, recovery.Config{BaseDelay: time.Hour})

	release := make(chan struct{})
	h.client.mu.Lock()
	h.client.blockReset = release
	h.client.mu.Unlock()

	assert.True(t, h.orchestrator.Trigger(models.TriggerManual))
	require.Eventually(t, func() bool { return h.orchestrator.Active() }, 2*time.Second, 5*time.Millisecond)

	// No trigger interrupts a running cycle, whatever its reason.
	assert.False(t, h.orchestrator.Trigger(models.TriggerManual))
	assert.False(t, h.orchestrator.Trigger(models.TriggerStaleness))
	assert.False(t, h.orchestrator.Trigger(models.TriggerScheduled))

	close(release)
	waitIdle(t, h.orchestrator)

	reset, _, _ := h.client.calls()
	assert.Equal(t, 1, reset)
}

func TestOrchestrator_BackToBackTriggersAdmitOneCycle(t *testing.T) {
	h := newHarness(t, recovery.Config{BaseDelay: time.Hour})

	release := make(chan struct{})
	h.client.mu.Lock()
	h.client.blockReset = release
	h.client.mu.Unlock()

	// The second trigger lands before the cycle loop has dequeued the
	// first; admission is decided at trigger time, not at dequeue time.
	assert.True(t, h.orchestrator.Trigger(models.TriggerManual))
	assert.False(t, h.orchestrator.Trigger(models.TriggerManual))

	close(release)
	waitIdle(t, h.orchestrator)

	reset, auth, fetch := h.client.calls()
	assert.Equal(t, 1, reset)
	assert.Equal(t, 1, auth)
	assert.Equal(t, 1, fetch)
}

func TestOrchestrator_StageTracksCycleProgress(t *testing.T) {
	h := newHarness(t, recovery.Config{BaseDelay: time.Hour})

	assert.Equal(t, recovery.StateIdle, h.orchestrator.Stage())

	release := make(chan struct{})
	h.client.mu.Lock()
	h.client.blockReset = release
	h.client.mu.Unlock()

	assert.True(t, h.orchestrator.Trigger(models.TriggerManual))

	// Admission moves the machine out of idle immediately; the blocked
	// reset call holds it in the resetting stage.
	assert.Equal(t, recovery.StateResetting, h.orchestrator.Stage())
	assert.True(t, h.orchestrator.Active())

	close(release)
	waitIdle(t, h.orchestrator)
	assert.Equal(t, recovery.StateIdle, h.orchestrator.Stage())
}

func TestOrchestrator_ManualTriggerCancelsPendingRetry(t *testing.T) {
	h := newHarness(t, recovery.Config{BaseDelay: time.Hour})
	h.client.setFetchErr(&remote.NetworkError{Op: "fetch", Err: errors.New("unreachable")})

	assert.True(t, h.orchestrator.Trigger(models.TriggerStaleness))
	require.Eventually(t, func() bool {
		_, pending := h.orchestrator.NextRetryAt()
		return pending && !h.orchestrator.Active()
	}, 2*time.Second, 5*time.Millisecond)

	// A staleness trigger defers to the scheduled retry...
	assert.False(t, h.orchestrator.Trigger(models.TriggerStaleness))

	// ...but a manual command overrides the wait and runs now.
	h.client.setFetchErr(nil)
	assert.True(t, h.orchestrator.Trigger(models.TriggerManual))

	require.Eventually(t, func() bool { return h.readings.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	waitIdle(t, h.orchestrator)

	_, pending := h.orchestrator.NextRetryAt()
	assert.False(t, pending)
}

func TestOrchestrator_DegradedPastThreshold(t *testing.T) {
	h := newHarness(t, recovery.Config{
		BaseDelay:     20 * time.Millisecond,
		MaxDelay:      40 * time.Millisecond,
		DegradedAfter: 1,
	})
	h.client.setFetchErr(&remote.NetworkError{Op: "fetch", Err: errors.New("unreachable")})

	assert.True(t, h.orchestrator.Trigger(models.TriggerStaleness))
	require.Eventually(t, func() bool { return len(h.notifier.failed()) >= 2 }, 3*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		for _, s := range h.sink.seen() {
			if s == api.Degraded {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestOrchestrator_FailedStageRecordedInHistory(t *testing.T) {
	h := newHarness(t, recovery.Config{BaseDelay: time.Hour})
	h.client.mu.Lock()
	h.client.authErr = &remote.AuthError{Op: "login", Err: errors.New("rejected")}
	h.client.mu.Unlock()

	assert.True(t, h.orchestrator.Trigger(models.TriggerManual))
	require.Eventually(t, func() bool { return len(h.notifier.failed()) == 1 }, 2*time.Second, 5*time.Millisecond)
	waitIdle(t, h.orchestrator)

	history := h.orchestrator.History()
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Number)
	assert.Equal(t, models.RecoveryFailed, history[0].Outcome)
	assert.Equal(t, recovery.StateReauthenticating, history[0].Stage)
	assert.NotEmpty(t, history[0].Err)
	assert.False(t, history[0].EndedAt.IsZero())

	// Auth failed, so the verification fetch never ran.
	_, _, fetch := h.client.calls()
	assert.Equal(t, 0, fetch)
}

func TestOrchestrator_TriggerAfterStopIsRejected(t *testing.T) {
	client := &fakeClient{reading: &models.Reading{}}
	st := stats.NewConnectionStats(10)
	cb := breaker.NewCircuitBreaker(breaker.Config{}, st, zap.NewNop())

	o, err := recovery.NewOrchestrator(recovery.Config{}, client, cb, &fakeSink{}, &fakeReadings{}, &fakeNotifier{}, nil, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, o.Start(context.Background()))
	o.Stop()

	assert.False(t, o.Trigger(models.TriggerManual))
}

func TestNewOrchestrator_RejectsBadDailyTime(t *testing.T) {
	client := &fakeClient{}
	st := stats.NewConnectionStats(10)
	cb := breaker.NewCircuitBreaker(breaker.Config{}, st, zap.NewNop())

	_, err := recovery.NewOrchestrator(recovery.Config{DailyReconnectTime: "25:00"},
		client, cb, &fakeSink{}, &fakeReadings{}, &fakeNotifier{}, nil, zap.NewNop())
	assert.Error(t, err)
}
