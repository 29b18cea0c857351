package recovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/models"
)

const preflightTimeout = 5 * time.Second

// preflight runs a plain TCP dial against the API host before the reset
// stage and records reachability in the event log. Its outcome is
// informational only: the fetch path is the arbiter of recovery, so the
// cycle proceeds either way.
func (o *Orchestrator) preflight(ctx context.Context, cycleID string, reason models.TriggerReason) {
	addr := o.cfg.PreflightAddr
	if addr == "" {
		return
	}

	latency, err := checkConnectivity(ctx, addr)
	if err != nil {
		o.logger.Warn("Connectivity preflight failed",
			zap.String("addr", addr),
			zap.Error(err),
		)
		o.record(cycleID, reason, "preflight", "failed", err.Error())
		return
	}

	o.logger.Debug("Connectivity preflight succeeded",
		zap.String("addr", addr),
		zap.Duration("latency", latency),
	)
	o.record(cycleID, reason, "preflight", "succeeded", fmt.Sprintf("latency=%s", latency.Round(time.Millisecond)))
}

// checkConnectivity dials addr over TCP and reports the connect latency.
func checkConnectivity(ctx context.Context, addr string) (time.Duration, error) {
	dialer := net.Dialer{Timeout: preflightTimeout}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("tcp dial %s: %w", addr, err)
	}
	latency := time.Since(start)

	if err := conn.Close(); err != nil {
		return latency, fmt.Errorf("closing preflight connection: %w", err)
	}
	return latency, nil
}
