package health

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/api"
	"github.com/mpetrenko/telewatch/internal/breaker"
	"github.com/mpetrenko/telewatch/internal/models"
	"github.com/mpetrenko/telewatch/internal/stats"
)

// FreshnessSource tells the monitor when data last refreshed successfully.
type FreshnessSource interface {
	LastSuccessAt() time.Time
}

// RecoveryTrigger is the orchestrator surface the monitor drives. Trigger is
// idempotent while a cycle runs: it reports false and does nothing else.
type RecoveryTrigger interface {
	Trigger(reason models.TriggerReason) bool
	Active() bool
	AttemptNumber() int
}

// Status is the composite read-only snapshot exposed for diagnostics.
type Status struct {
	HealthState   api.HealthState
	CircuitState  breaker.State
	Stats         stats.Snapshot
	AttemptNumber int
	LastTrigger   models.TriggerReason
	LastSuccessAt time.Time
}

// HealthMonitor owns the health-state word and runs the heartbeat check:
// evaluate freshness, escalate to the recovery orchestrator once the
// staleness threshold is crossed.
type HealthMonitor struct {
	detector *StalenessDetector
	source   FreshnessSource
	breaker  *breaker.CircuitBreaker
	stats    *stats.ConnectionStats
	logger   *zap.Logger

	mu          sync.RWMutex
	state       api.HealthState
	trigger     RecoveryTrigger
	lastTrigger models.TriggerReason
}

func NewHealthMonitor(
	detector *StalenessDetector,
	source FreshnessSource,
	cb *breaker.CircuitBreaker,
	st *stats.ConnectionStats,
	logger *zap.Logger,
) *HealthMonitor {
	return &HealthMonitor{
		detector: detector,
		source:   source,
		breaker:  cb,
		stats:    st,
		logger:   logger,
		state:    api.Healthy,
	}
}

// SetTrigger binds the recovery orchestrator. Called once during wiring; the
// monitor and the orchestrator reference each other, so one side is bound
// after construction.
func (m *HealthMonitor) SetTrigger(t RecoveryTrigger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trigger = t
}

// Tick runs one heartbeat check. While a recovery cycle is active the
// evaluation is skipped entirely; the cycle outcome will set the state.
func (m *HealthMonitor) Tick(now time.Time) {
	m.mu.Lock()
	trigger := m.trigger
	m.mu.Unlock()

	if trigger != nil && trigger.Active() {
		m.logger.Debug("Heartbeat check skipped, recovery cycle active")
		return
	}

	lastSuccess := m.source.LastSuccessAt()
	eval := m.detector.Evaluate(now, lastSuccess)

	if eval.Consecutive > 0 {
		m.logger.Warn("Telemetry data is stale",
			zap.Duration("age", eval.Age),
			zap.Int("consecutive_checks", eval.Consecutive),
			zap.Bool("threshold_reached", eval.Stale),
		)
	}

	m.applyFreshness(eval)

	if eval.Stale && trigger != nil {
		if trigger.Trigger(models.TriggerStaleness) {
			m.mu.Lock()
			m.lastTrigger = models.TriggerStaleness
			m.mu.Unlock()
		}
	}
}

// applyFreshness moves between healthy and stale_suspected. The recovering
// and degraded states belong to the orchestrator and are left alone here.
func (m *HealthMonitor) applyFreshness(eval Evaluation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case eval.Consecutive > 0 && m.state == api.Healthy:
		m.setStateLocked(api.StaleSuspected)
	case eval.Consecutive == 0 && m.state == api.StaleSuspected:
		m.setStateLocked(api.Healthy)
	}
}

// SetState is the orchestrator's path into the health-state word. The word
// always reflects the most recently completed orchestrator stage.
func (m *HealthMonitor) SetState(state api.HealthState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStateLocked(state)
}

func (m *HealthMonitor) setStateLocked(state api.HealthState) {
	if m.state == state {
		return
	}
	m.logger.Info("Health state changed",
		zap.String("from", string(m.state)),
		zap.String("to", string(state)),
	)
	m.state = state
}

// State returns the current health state.
func (m *HealthMonitor) State() api.HealthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// NoteTrigger records a trigger that did not come through Tick (manual
// command, daily schedule) for the diagnostics snapshot.
func (m *HealthMonitor) NoteTrigger(reason models.TriggerReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTrigger = reason
}

// Status assembles the composite snapshot for diagnostics and presentation.
func (m *HealthMonitor) Status() Status {
	m.mu.RLock()
	state := m.state
	trigger := m.trigger
	lastTrigger := m.lastTrigger
	m.mu.RUnlock()

	attempt := 0
	if trigger != nil {
		attempt = trigger.AttemptNumber()
	}

	return Status{
		HealthState:   state,
		CircuitState:  m.breaker.State(),
		Stats:         m.stats.Snapshot(),
		AttemptNumber: attempt,
		LastTrigger:   lastTrigger,
		LastSuccessAt: m.source.LastSuccessAt(),
	}
}
