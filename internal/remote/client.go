// Package remote is the boundary to the telemetry API: the Client contract
// the core depends on, the closed error taxonomy, and the HTTP
// implementation with single-owner session replacement.
package remote

import (
	"context"

	"github.com/mpetrenko/telewatch/internal/models"
)

//go:generate mockgen -source=client.go -destination=../service/mocks/mock_remote.go -package=mocks

// Client is the remote telemetry API as seen by the core. Every call may be
// slow and may fail with one of the classified errors; all calls are routed
// through the circuit breaker by the callers.
type Client interface {
	// Authenticate acquires (or re-acquires) session credentials.
	Authenticate(ctx context.Context) error

	// FetchReading retrieves the latest telemetry snapshot.
	FetchReading(ctx context.Context) (*models.Reading, error)

	// UpdateSettings pushes remote-side parameters upstream.
	UpdateSettings(ctx context.Context, settings models.Settings) error

	// Reset discards the current session wholesale and constructs a fresh,
	// unauthenticated one. Only the recovery orchestrator calls this, under
	// its cycle lock.
	Reset(ctx context.Context) error

	// Close releases transport resources on shutdown.
	Close()
}
