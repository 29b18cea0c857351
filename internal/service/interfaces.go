package service

import (
	"context"
	"time"

	"github.com/mpetrenko/telewatch/internal/api"
	"github.com/mpetrenko/telewatch/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_services.go -package=mocks

// TelemetryService owns the latest reading and the breaker-gated fetch path.
type TelemetryService interface {
	// Poll fetches a fresh reading through the circuit breaker.
	Poll(ctx context.Context) error

	// LatestReading returns the last known reading; ok is false until the
	// first successful fetch.
	LatestReading() (reading *models.Reading, ok bool)

	// LastSuccessAt returns when data last refreshed; zero if never.
	LastSuccessAt() time.Time

	// AcceptRecovered delivers a reading produced by a recovery cycle's
	// verification fetch.
	AcceptRecovered(reading *models.Reading)

	// UpdateSettings pushes settings upstream through the circuit breaker.
	UpdateSettings(ctx context.Context, settings models.Settings) error

	// CircuitState reports the breaker gate in wire casing.
	CircuitState() api.CircuitState
}

// RecoveryService wraps the orchestrator for handlers and diagnostics.
type RecoveryService interface {
	// Force requests an immediate recovery cycle. Idempotent: reports
	// false when a cycle is already in flight.
	Force() bool

	Active() bool

	// Stage reports the cycle stage in flight; "idle" when none is.
	Stage() string

	AttemptNumber() int
	History() []models.RecoveryAttempt
	NextRetryAt() (time.Time, bool)
}

// HealthService assembles the composite status surfaces.
type HealthService interface {
	GetHealth(ctx context.Context) *HealthStatus
	GetDiagnostics(ctx context.Context) *api.DiagnosticsResponse
	RunHealthCheck(ctx context.Context) *api.HealthCheckResponse
}

// SchedulerService controls the poll and heartbeat loops together.
type SchedulerService interface {
	Start() error
	Stop() error
	IsRunning() bool
}
