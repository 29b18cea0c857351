package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrenko/telewatch/internal/api"
	"github.com/mpetrenko/telewatch/internal/breaker"
	"github.com/mpetrenko/telewatch/internal/health"
	"github.com/mpetrenko/telewatch/internal/metrics"
	"github.com/mpetrenko/telewatch/internal/remote"
	"github.com/mpetrenko/telewatch/internal/stats"
)

type staticSource struct {
	status health.Status
}

func (s staticSource) Status() health.Status {
	return s.status
}

func TestCollector_Collect(t *testing.T) {
	lastSuccess := time.Unix(1700000000, 0)

	c := metrics.NewCollector(staticSource{status: health.Status{
		HealthState:   api.Recovering,
		CircuitState:  breaker.StateOpen,
		AttemptNumber: 2,
		Stats: stats.Snapshot{
			SuccessCount:        10,
			FailureCount:        4,
			ShortCircuitCount:   3,
			ConsecutiveFailures: 4,
			LastSuccessAt:       lastSuccess,
			FailuresByKind: map[remote.ErrorKind]int64{
				remote.KindNetwork: 3,
				remote.KindTimeout: 1,
			},
		},
	}})

	expected := `
		# HELP telewatch_call_failures_total Failed calls by classified error kind.
		# TYPE telewatch_call_failures_total counter
		telewatch_call_failures_total{kind="network"} 3
		telewatch_call_failures_total{kind="timeout"} 1
		# HELP telewatch_calls_total Calls dispatched to the remote telemetry API by outcome.
		# TYPE telewatch_calls_total counter
		telewatch_calls_total{outcome="failure"} 4
		telewatch_calls_total{outcome="success"} 10
		# HELP telewatch_circuit_state Circuit breaker state (0 closed, 1 open, 2 half_open).
		# TYPE telewatch_circuit_state gauge
		telewatch_circuit_state 1
		# HELP telewatch_consecutive_failures Current consecutive-failure streak.
		# TYPE telewatch_consecutive_failures gauge
		telewatch_consecutive_failures 4
		# HELP telewatch_health_state Health state (0 healthy, 1 stale_suspected, 2 recovering, 3 degraded).
		# TYPE telewatch_health_state gauge
		telewatch_health_state 2
		# HELP telewatch_last_success_timestamp_seconds Unix time of the last successful fetch; 0 if none yet.
		# TYPE telewatch_last_success_timestamp_seconds gauge
		telewatch_last_success_timestamp_seconds 1.7e+09
		# HELP telewatch_recovery_attempt_number Current recovery attempt number; 0 when no recovery is pending.
		# TYPE telewatch_recovery_attempt_number gauge
		telewatch_recovery_attempt_number 2
		# HELP telewatch_short_circuits_total Calls refused by the open circuit breaker.
		# TYPE telewatch_short_circuits_total counter
		telewatch_short_circuits_total 3
	`

	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestCollector_FreshStart(t *testing.T) {
	c := metrics.NewCollector(staticSource{status: health.Status{
		HealthState:  api.Healthy,
		CircuitState: breaker.StateClosed,
		Stats:        stats.Snapshot{},
	}})

	expected := `
		# HELP telewatch_health_state Health state (0 healthy, 1 stale_suspected, 2 recovering, 3 degraded).
		# TYPE telewatch_health_state gauge
		telewatch_health_state 0
		# HELP telewatch_last_success_timestamp_seconds Unix time of the last successful fetch; 0 if none yet.
		# TYPE telewatch_last_success_timestamp_seconds gauge
		telewatch_last_success_timestamp_seconds 0
	`

	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"telewatch_health_state", "telewatch_last_success_timestamp_seconds"))
}

func TestCollector_MetricCount(t *testing.T) {
	c := metrics.NewCollector(staticSource{})

	// Two call outcomes plus the six scalar gauges/counters; no failure kinds
	// have been recorded yet.
	assert.Equal(t, 8, testutil.CollectAndCount(c))
}
