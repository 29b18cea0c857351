// Package recovery drives the reconnect sequence against the remote
// telemetry API: reset the session, reauthenticate, verify with a real
// fetch. One cycle at a time; failures schedule a retry with exponential
// backoff; a daily forced reconnect runs regardless of current health.
package recovery

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/api"
	"github.com/mpetrenko/telewatch/internal/breaker"
	"github.com/mpetrenko/telewatch/internal/models"
	"github.com/mpetrenko/telewatch/internal/remote"
)

// Orchestrator states. The waiting-to-retry condition is StateIdle with a
// pending retry timer.
const (
	StateIdle             = "idle"
	StateResetting        = "resetting"
	StateReauthenticating = "reauthenticating"
	StateVerifying        = "verifying"
)

const (
	eventTrigger     = "trigger"
	eventResetDone   = "reset_done"
	eventAuthDone    = "auth_done"
	eventVerifyDone  = "verify_done"
	eventCycleFailed = "cycle_failed"
)

const (
	DefaultBaseDelay     = 30 * time.Second
	DefaultMaxDelay      = 15 * time.Minute
	DefaultDegradedAfter = 3
)

// StatusSink receives health-state transitions as cycle stages complete.
type StatusSink interface {
	SetState(state api.HealthState)
	NoteTrigger(reason models.TriggerReason)
}

// ReadingSink receives the reading produced by a successful verification, so
// a recovered connection refreshes data exactly like a normal poll.
type ReadingSink interface {
	AcceptRecovered(reading *models.Reading)
}

// Notifier publishes recovery lifecycle events. Implementations must not
// block the cycle; failures are the notifier's problem.
type Notifier interface {
	RecoveryStarted(reason models.TriggerReason, attempt int)
	RecoverySucceeded(attempt int)
	RecoveryFailed(attempt int, stage string, retryIn time.Duration, cause error)
}

// EventRecorder persists audit rows for recovery cycles. May drop events
// when the store is unavailable.
type EventRecorder interface {
	RecordRecoveryEvent(event models.RecoveryEvent)
}

// Config holds the orchestrator policy knobs.
type Config struct {
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	DegradedAfter int

	// DailyReconnectTime is a local "HH:MM" or "HH:MM:SS" time of day for
	// the forced daily cycle. Empty disables it.
	DailyReconnectTime string

	// Preflight enables the TCP connectivity probe before resetting.
	Preflight bool

	// PreflightAddr is the host:port dialed by the preflight probe.
	PreflightAddr string
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseDelay <= 0 {
		out.BaseDelay = DefaultBaseDelay
	}
	if out.MaxDelay <= 0 {
		out.MaxDelay = DefaultMaxDelay
	}
	if out.DegradedAfter <= 0 {
		out.DegradedAfter = DefaultDegradedAfter
	}
	return out
}

// Orchestrator is the process-wide recovery state machine. Constructed once
// at startup; Start and Stop bound its lifecycle.
type Orchestrator struct {
	cfg      Config
	client   remote.Client
	breaker  *breaker.CircuitBreaker
	sink     StatusSink
	readings ReadingSink
	notifier Notifier
	recorder EventRecorder
	logger   *zap.Logger

	machine *fsm.FSM
	bo      *backoff.ExponentialBackOff
	daily   *dailySchedule

	mu            sync.Mutex
	running       bool
	attemptNumber int
	history       []models.RecoveryAttempt
	retryTimer    *time.Timer
	nextRetryAt   time.Time

	triggerCh chan models.TriggerReason
	stopCh    chan struct{}
	cancelRun context.CancelFunc
	wg        sync.WaitGroup
}

func NewOrchestrator(
	cfg Config,
	client remote.Client,
	cb *breaker.CircuitBreaker,
	sink StatusSink,
	readings ReadingSink,
	notifier Notifier,
	recorder EventRecorder,
	logger *zap.Logger,
) (*Orchestrator, error) {
	c := cfg.withDefaults()

	o := &Orchestrator{
		cfg:       c,
		client:    client,
		breaker:   cb,
		sink:      sink,
		readings:  readings,
		notifier:  notifier,
		recorder:  recorder,
		logger:    logger,
		triggerCh: make(chan models.TriggerReason, 1),
		stopCh:    make(chan struct{}),
	}

	o.machine = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventTrigger, Src: []string{StateIdle}, Dst: StateResetting},
			{Name: eventResetDone, Src: []string{StateResetting}, Dst: StateReauthenticating},
			{Name: eventAuthDone, Src: []string{StateReauthenticating}, Dst: StateVerifying},
			{Name: eventVerifyDone, Src: []string{StateVerifying}, Dst: StateIdle},
			{Name: eventCycleFailed, Src: []string{StateResetting, StateReauthenticating, StateVerifying}, Dst: StateIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("Recovery stage transition",
					zap.String("from", e.Src),
					zap.String("to", e.Dst),
					zap.String("event", e.Event),
				)
			},
		},
	)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.BaseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = c.MaxDelay
	bo.MaxElapsedTime = 0
	bo.Reset()
	o.bo = bo

	if c.DailyReconnectTime != "" {
		daily, err := newDailySchedule(c.DailyReconnectTime, func() {
			o.logger.Info("Daily scheduled reconnect firing")
			o.Trigger(models.TriggerScheduled)
		})
		if err != nil {
			return nil, fmt.Errorf("invalid daily reconnect time %q: %w", c.DailyReconnectTime, err)
		}
		o.daily = daily
	}

	return o, nil
}

// Start launches the cycle loop and the daily schedule. Calling Start on a
// running orchestrator is an error.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return fmt.Errorf("recovery orchestrator is already running")
	}
	o.running = true
	o.stopCh = make(chan struct{})

	runCtx, cancel := context.WithCancel(ctx)
	o.cancelRun = cancel

	o.wg.Add(1)
	go o.run(runCtx)

	if o.daily != nil {
		o.daily.start()
	}

	o.logger.Info("Recovery orchestrator started",
		zap.Duration("base_delay", o.cfg.BaseDelay),
		zap.Duration("max_delay", o.cfg.MaxDelay),
		zap.String("daily_reconnect", o.cfg.DailyReconnectTime),
	)
	return nil
}

// Stop cancels any pending retry and the daily schedule, then waits for an
// in-flight cycle to finish. The context passed to Start is expected to be
// cancelled by the host on shutdown, which aborts remote calls.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	o.cancelRetryLocked()
	close(o.stopCh)
	cancel := o.cancelRun
	o.mu.Unlock()

	if o.daily != nil {
		o.daily.stop()
	}
	if cancel != nil {
		cancel()
	}
	o.wg.Wait()

	// A trigger admitted but never dequeued would leave the machine stuck
	// mid-entry; discard it and settle back to idle.
	select {
	case <-o.triggerCh:
	default:
	}
	if o.machine.Current() != StateIdle {
		o.machine.SetState(StateIdle)
	}

	o.logger.Info("Recovery orchestrator stopped")
}

// Trigger requests a recovery cycle. It returns immediately; the cycle runs
// asynchronously. Rules:
//   - a trigger during an active cycle is a no-op;
//   - a manual or scheduled trigger cancels a pending backoff wait and
//     starts immediately;
//   - a staleness trigger defers to an already-scheduled retry.
func (o *Orchestrator) Trigger(reason models.TriggerReason) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		o.logger.Debug("Recovery trigger ignored, orchestrator not running",
			zap.String("reason", string(reason)))
		return false
	}

	if o.retryTimer != nil && reason == models.TriggerStaleness {
		// A retry is already scheduled; staleness adds nothing.
		return false
	}

	// The idle to resetting transition is the admission gate. While a cycle
	// is queued or in flight the machine is not idle, the event is rejected,
	// and the trigger is dropped, so two triggers can never commit
	// back to back.
	if err := o.machine.Event(context.Background(), eventTrigger); err != nil {
		o.logger.Debug("Recovery trigger ignored",
			zap.String("reason", string(reason)),
			zap.String("stage", o.machine.Current()),
		)
		return false
	}

	o.cancelRetryLocked()

	// The gate admits one cycle at a time, so the slot is always free.
	o.triggerCh <- reason
	o.sink.NoteTrigger(reason)
	return true
}

// Active reports whether a cycle is queued or in flight.
func (o *Orchestrator) Active() bool {
	return o.machine.Current() != StateIdle
}

// Stage reports the in-flight cycle stage; StateIdle when no cycle runs.
func (o *Orchestrator) Stage() string {
	return o.machine.Current()
}

// AttemptNumber returns the current consecutive failed-cycle count; zero
// after a fully successful cycle.
func (o *Orchestrator) AttemptNumber() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attemptNumber
}

// History returns a copy of the attempts since the last full success.
func (o *Orchestrator) History() []models.RecoveryAttempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.RecoveryAttempt, len(o.history))
	copy(out, o.history)
	return out
}

// NextRetryAt reports the scheduled retry time, if one is pending.
func (o *Orchestrator) NextRetryAt() (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.retryTimer == nil {
		return time.Time{}, false
	}
	return o.nextRetryAt, true
}

func (o *Orchestrator) run(ctx context.Context) {
	defer o.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case reason := <-o.triggerCh:
			o.runCycle(ctx, reason)
		}
	}
}

// runCycle executes one reset, reauthenticate, verify sequence. Trigger has
// already moved the machine to StateResetting, so at most one cycle runs at
// a time and the machine tracks the stage in flight.
func (o *Orchestrator) runCycle(ctx context.Context, reason models.TriggerReason) {
	o.mu.Lock()
	o.attemptNumber++
	attempt := models.RecoveryAttempt{
		Number:    o.attemptNumber,
		StartedAt: time.Now(),
		Outcome:   models.RecoveryPending,
	}
	o.history = append(o.history, attempt)
	n := o.attemptNumber
	o.mu.Unlock()

	cycleID := uuid.New().String()

	o.logger.Warn("Starting recovery cycle",
		zap.String("cycle_id", cycleID),
		zap.String("trigger", string(reason)),
		zap.Int("attempt", n),
	)
	o.sink.SetState(api.Recovering)
	o.notifier.RecoveryStarted(reason, n)
	o.record(cycleID, reason, "cycle", "started", "")

	if o.cfg.Preflight {
		o.preflight(ctx, cycleID, reason)
	}

	// Stage 1: discard the session and build a fresh one. The orchestrator
	// is the sole owner of the session for the rest of the cycle.
	if err := o.client.Reset(ctx); err != nil {
		o.failCycle(ctx, cycleID, reason, StateResetting, err)
		return
	}
	o.record(cycleID, reason, StateResetting, "succeeded", "")
	o.mustEvent(ctx, eventResetDone)

	// Stage 2: reacquire credentials, gated by the breaker.
	if err := o.breaker.Execute(ctx, o.client.Authenticate); err != nil {
		o.failCycle(ctx, cycleID, reason, StateReauthenticating, err)
		return
	}
	o.record(cycleID, reason, StateReauthenticating, "succeeded", "")
	o.mustEvent(ctx, eventAuthDone)

	// Stage 3: authentication alone proves nothing; one real fetch does.
	var reading *models.Reading
	err := o.breaker.Execute(ctx, func(ctx context.Context) error {
		r, fetchErr := o.client.FetchReading(ctx)
		if fetchErr != nil {
			return fetchErr
		}
		reading = r
		return nil
	})
	if err != nil {
		o.failCycle(ctx, cycleID, reason, StateVerifying, err)
		return
	}
	o.mustEvent(ctx, eventVerifyDone)
	o.record(cycleID, reason, StateVerifying, "succeeded", "")

	o.completeCycle(cycleID, reading, n)
}

func (o *Orchestrator) completeCycle(cycleID string, reading *models.Reading, attempt int) {
	o.readings.AcceptRecovered(reading)

	o.mu.Lock()
	o.attemptNumber = 0
	o.history = nil
	o.bo.Reset()
	o.mu.Unlock()

	o.sink.SetState(api.Healthy)
	o.notifier.RecoverySucceeded(attempt)
	o.record(cycleID, "", "cycle", "succeeded", "")

	o.logger.Info("Recovery cycle completed successfully",
		zap.String("cycle_id", cycleID),
		zap.Int("attempt", attempt),
	)
}

// failCycle records the failed stage, schedules the retry with the next
// backoff delay, and escalates to degraded past the warn threshold.
func (o *Orchestrator) failCycle(ctx context.Context, cycleID string, reason models.TriggerReason, stage string, cause error) {
	delay := o.bo.NextBackOff()

	// Arm the retry and return the machine to idle in one critical section,
	// so a staleness trigger arriving right after the failure sees the
	// pending retry and defers to it.
	o.mu.Lock()
	n := o.attemptNumber
	if len(o.history) > 0 {
		last := &o.history[len(o.history)-1]
		last.Outcome = models.RecoveryFailed
		last.Stage = stage
		last.Err = cause.Error()
		last.Backoff = delay
		last.EndedAt = time.Now()
	}
	o.scheduleRetryLocked(delay)
	o.mustEvent(ctx, eventCycleFailed)
	o.mu.Unlock()

	if n > o.cfg.DegradedAfter {
		o.sink.SetState(api.Degraded)
	}

	o.notifier.RecoveryFailed(n, stage, delay, cause)
	o.record(cycleID, reason, stage, "failed", cause.Error())

	o.logger.Error("Recovery cycle failed",
		zap.String("cycle_id", cycleID),
		zap.String("stage", stage),
		zap.Int("attempt", n),
		zap.Duration("retry_in", delay),
		zap.Error(cause),
	)
}

// scheduleRetryLocked arms the retry timer. The timer handle is the
// cancellation point for manual overrides; callers hold o.mu.
func (o *Orchestrator) scheduleRetryLocked(delay time.Duration) {
	o.nextRetryAt = time.Now().Add(delay)
	o.retryTimer = time.AfterFunc(delay, func() {
		o.mu.Lock()
		o.retryTimer = nil
		o.mu.Unlock()
		o.Trigger(models.TriggerRetry)
	})
}

func (o *Orchestrator) cancelRetryLocked() {
	if o.retryTimer != nil {
		o.retryTimer.Stop()
		o.retryTimer = nil
	}
}

// mustEvent advances the state machine. The event table is closed and every
// call site respects it, so a rejected event is a programming error worth a
// loud log rather than a crash.
func (o *Orchestrator) mustEvent(ctx context.Context, event string) {
	if err := o.machine.Event(ctx, event); err != nil {
		o.logger.Error("Recovery state machine rejected event",
			zap.String("event", event),
			zap.String("state", o.machine.Current()),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) record(cycleID string, reason models.TriggerReason, stage, outcome, detail string) {
	if o.recorder == nil {
		return
	}
	ev := models.RecoveryEvent{
		CycleID:   cycleID,
		Trigger:   string(reason),
		Stage:     stage,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
	if detail != "" {
		ev.Detail = sql.NullString{String: detail, Valid: true}
	}
	o.recorder.RecordRecoveryEvent(ev)
}
