// Package metrics exposes the connection-health state as Prometheus
// metrics. The collector reads consistent snapshots at scrape time instead
// of threading counters through the domain packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mpetrenko/telewatch/internal/api"
	"github.com/mpetrenko/telewatch/internal/breaker"
	"github.com/mpetrenko/telewatch/internal/health"
)

// StatusSource provides the composite snapshot the collector reads.
type StatusSource interface {
	Status() health.Status
}

var healthStateValues = map[api.HealthState]float64{
	api.Healthy:        0,
	api.StaleSuspected: 1,
	api.Recovering:     2,
	api.Degraded:       3,
}

var circuitStateValues = map[breaker.State]float64{
	breaker.StateClosed:   0,
	breaker.StateOpen:     1,
	breaker.StateHalfOpen: 2,
}

// Collector implements prometheus.Collector over the monitor snapshot.
type Collector struct {
	source StatusSource

	callsTotal          *prometheus.Desc
	failuresByKind      *prometheus.Desc
	shortCircuitsTotal  *prometheus.Desc
	consecutiveFailures *prometheus.Desc
	healthState         *prometheus.Desc
	circuitState        *prometheus.Desc
	recoveryAttempt     *prometheus.Desc
	lastSuccessTime     *prometheus.Desc
}

func NewCollector(source StatusSource) *Collector {
	return &Collector{
		source: source,
		callsTotal: prometheus.NewDesc(
			"telewatch_calls_total",
			"Calls dispatched to the remote telemetry API by outcome.",
			[]string{"outcome"}, nil,
		),
		failuresByKind: prometheus.NewDesc(
			"telewatch_call_failures_total",
			"Failed calls by classified error kind.",
			[]string{"kind"}, nil,
		),
		shortCircuitsTotal: prometheus.NewDesc(
			"telewatch_short_circuits_total",
			"Calls refused by the open circuit breaker.",
			nil, nil,
		),
		consecutiveFailures: prometheus.NewDesc(
			"telewatch_consecutive_failures",
			"Current consecutive-failure streak.",
			nil, nil,
		),
		healthState: prometheus.NewDesc(
			"telewatch_health_state",
			"Health state (0 healthy, 1 stale_suspected, 2 recovering, 3 degraded).",
			nil, nil,
		),
		circuitState: prometheus.NewDesc(
			"telewatch_circuit_state",
			"Circuit breaker state (0 closed, 1 open, 2 half_open).",
			nil, nil,
		),
		recoveryAttempt: prometheus.NewDesc(
			"telewatch_recovery_attempt_number",
			"Current recovery attempt number; 0 when no recovery is pending.",
			nil, nil,
		),
		lastSuccessTime: prometheus.NewDesc(
			"telewatch_last_success_timestamp_seconds",
			"Unix time of the last successful fetch; 0 if none yet.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.callsTotal
	ch <- c.failuresByKind
	ch <- c.shortCircuitsTotal
	ch <- c.consecutiveFailures
	ch <- c.healthState
	ch <- c.circuitState
	ch <- c.recoveryAttempt
	ch <- c.lastSuccessTime
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	status := c.source.Status()
	st := status.Stats

	ch <- prometheus.MustNewConstMetric(c.callsTotal, prometheus.CounterValue,
		float64(st.SuccessCount), "success")
	ch <- prometheus.MustNewConstMetric(c.callsTotal, prometheus.CounterValue,
		float64(st.FailureCount), "failure")

	for kind, count := range st.FailuresByKind {
		ch <- prometheus.MustNewConstMetric(c.failuresByKind, prometheus.CounterValue,
			float64(count), string(kind))
	}

	ch <- prometheus.MustNewConstMetric(c.shortCircuitsTotal, prometheus.CounterValue,
		float64(st.ShortCircuitCount))
	ch <- prometheus.MustNewConstMetric(c.consecutiveFailures, prometheus.GaugeValue,
		float64(st.ConsecutiveFailures))
	ch <- prometheus.MustNewConstMetric(c.healthState, prometheus.GaugeValue,
		healthStateValues[status.HealthState])
	ch <- prometheus.MustNewConstMetric(c.circuitState, prometheus.GaugeValue,
		circuitStateValues[status.CircuitState])
	ch <- prometheus.MustNewConstMetric(c.recoveryAttempt, prometheus.GaugeValue,
		float64(status.AttemptNumber))

	var lastSuccess float64
	if !st.LastSuccessAt.IsZero() {
		lastSuccess = float64(st.LastSuccessAt.Unix())
	}
	ch <- prometheus.MustNewConstMetric(c.lastSuccessTime, prometheus.GaugeValue, lastSuccess)
}
