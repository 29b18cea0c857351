// Package api defines the wire-level types served by the HTTP surface.
package api

import "time"

// HealthState describes the overall connection health of the daemon.
type HealthState string

const (
	Healthy        HealthState = "healthy"
	StaleSuspected HealthState = "stale_suspected"
	Recovering     HealthState = "recovering"
	Degraded       HealthState = "degraded"
)

// CircuitState mirrors the breaker state on the wire.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// ComponentStatus reports connectivity of an optional backing component.
type ComponentStatus string

const (
	ComponentConnected    ComponentStatus = "connected"
	ComponentDisconnected ComponentStatus = "disconnected"
	ComponentDisabled     ComponentStatus = "disabled"
)

type SchedulerStatus string

const (
	SchedulerRunning SchedulerStatus = "running"
	SchedulerStopped SchedulerStatus = "stopped"
)

type SchedulerResponseStatus string

const (
	SchedulerResponseStatusStarted SchedulerResponseStatus = "started"
	SchedulerResponseStatusStopped SchedulerResponseStatus = "stopped"
)

// RecoveryResponseStatus is returned by the manual-recovery command.
type RecoveryResponseStatus string

const (
	RecoveryStarted        RecoveryResponseStatus = "started"
	RecoveryAlreadyRunning RecoveryResponseStatus = "already_running"
)

// CheckVerdict is the overall result of an on-demand health probe.
type CheckVerdict string

const (
	VerdictHealthy      CheckVerdict = "healthy"
	VerdictLimited      CheckVerdict = "limited"
	VerdictDisconnected CheckVerdict = "disconnected"
)

type ErrorResponse struct {
	Error     string     `json:"error"`
	Message   string     `json:"message"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type HealthResponse struct {
	Status          HealthState     `json:"status"`
	CircuitState    CircuitState    `json:"circuit_state"`
	SchedulerStatus SchedulerStatus `json:"scheduler_status"`
	DatabaseStatus  ComponentStatus `json:"database_status"`
	RedisStatus     ComponentStatus `json:"redis_status"`
	BreakerSummary  string          `json:"breaker_summary,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// CallEvent is one entry of the recent-call ring exposed for diagnostics.
type CallEvent struct {
	At        time.Time `json:"at"`
	Outcome   string    `json:"outcome"`
	LatencyMS float64   `json:"latency_ms,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
}

type RecoveryAttempt struct {
	Number    int        `json:"number"`
	StartedAt time.Time  `json:"started_at"`
	Stage     string     `json:"stage,omitempty"`
	Outcome   string     `json:"outcome"`
	BackoffMS float64    `json:"backoff_ms,omitempty"`
	Error     string     `json:"error,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

type DiagnosticsResponse struct {
	HealthStatus         HealthState       `json:"health_status"`
	CircuitState         CircuitState      `json:"circuit_state"`
	ConsecutiveFailures  int               `json:"consecutive_failures"`
	LastSuccessAt        *time.Time        `json:"last_success_at,omitempty"`
	SuccessCount         int64             `json:"success_count"`
	FailureCount         int64             `json:"failure_count"`
	SuccessRate          float64           `json:"success_rate"`
	AverageLatencyMS     float64           `json:"average_latency_ms"`
	FailuresByKind       map[string]int64  `json:"failures_by_kind,omitempty"`
	RecentEvents         []CallEvent       `json:"recent_events"`
	CurrentStage         string            `json:"current_stage"`
	CurrentAttemptNumber int               `json:"current_attempt_number"`
	NextRetryAt          *time.Time        `json:"next_retry_at,omitempty"`
	RecoveryHistory      []RecoveryAttempt `json:"recovery_history,omitempty"`
	Timestamp            time.Time         `json:"timestamp"`
}

type RecoveryResponse struct {
	Status  RecoveryResponseStatus `json:"status"`
	Message string                 `json:"message"`
}

type SchedulerResponse struct {
	Status  SchedulerResponseStatus `json:"status"`
	Message string                  `json:"message"`
}

type ReadingResponse struct {
	StateOfCharge   float64   `json:"state_of_charge"`
	GridPower       float64   `json:"grid_power"`
	HousePower      float64   `json:"house_power"`
	BatteryPower    float64   `json:"battery_power"`
	PVPower         float64   `json:"pv_power"`
	RemoteCreatedAt string    `json:"remote_created_at,omitempty"`
	FetchedAt       time.Time `json:"fetched_at"`
	AgeSeconds      float64   `json:"age_seconds"`
	Stale           bool      `json:"stale"`
}

// ProbeResult is one step of the on-demand composite health check.
type ProbeResult struct {
	Success    bool    `json:"success"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

type HealthCheckResponse struct {
	Verdict        CheckVerdict `json:"verdict"`
	Connectivity   *ProbeResult `json:"connectivity,omitempty"`
	Authentication ProbeResult  `json:"authentication"`
	Fetch          ProbeResult  `json:"fetch"`
	Timestamp      time.Time    `json:"timestamp"`
}
