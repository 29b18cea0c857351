package service

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mpetrenko/telewatch/internal/api"
	"github.com/mpetrenko/telewatch/internal/breaker"
	"github.com/mpetrenko/telewatch/internal/config"
	"github.com/mpetrenko/telewatch/internal/health"
	"github.com/mpetrenko/telewatch/internal/remote"
	"github.com/mpetrenko/telewatch/internal/repository"
	"github.com/mpetrenko/telewatch/internal/stats"
)

type healthService struct {
	cfg              *config.Config
	monitor          *health.HealthMonitor
	client           remote.Client
	circuitBreaker   *breaker.CircuitBreaker
	recoveryService  RecoveryService
	schedulerService SchedulerService
	repo             repository.Repository
	redisClient      *redis.Client
}

func NewHealthService(
	cfg *config.Config,
	monitor *health.HealthMonitor,
	client remote.Client,
	cb *breaker.CircuitBreaker,
	recoveryService RecoveryService,
	schedulerService SchedulerService,
	repo repository.Repository,
	redisClient *redis.Client,
) HealthService {
	return &healthService{
		cfg:              cfg,
		monitor:          monitor,
		client:           client,
		circuitBreaker:   cb,
		recoveryService:  recoveryService,
		schedulerService: schedulerService,
		repo:             repo,
		redisClient:      redisClient,
	}
}

func (s *healthService) GetHealth(_ context.Context) *HealthStatus {
	monitorStatus := s.monitor.Status()

	status := &HealthStatus{
		Status:       monitorStatus.HealthState,
		CircuitState: api.CircuitState(monitorStatus.CircuitState),
	}

	if s.schedulerService.IsRunning() {
		status.SchedulerStatus = api.SchedulerRunning
	} else {
		status.SchedulerStatus = api.SchedulerStopped
	}

	status.DatabaseStatus = s.checkDatabaseHealth()
	status.RedisStatus = s.checkRedisHealth()

	st := monitorStatus.Stats
	total := st.SuccessCount + st.FailureCount
	if total > 0 {
		status.BreakerSummary = fmt.Sprintf("Calls: %d, Failures: %d (%.1f%%), Short-circuits: %d",
			total, st.FailureCount, float64(st.FailureCount)/float64(total)*100, st.ShortCircuitCount)
	} else {
		status.BreakerSummary = "No calls yet"
	}

	return status
}

func (s *healthService) GetDiagnostics(_ context.Context) *api.DiagnosticsResponse {
	monitorStatus := s.monitor.Status()
	st := monitorStatus.Stats

	resp := &api.DiagnosticsResponse{
		HealthStatus:         monitorStatus.HealthState,
		CircuitState:         api.CircuitState(monitorStatus.CircuitState),
		ConsecutiveFailures:  st.ConsecutiveFailures,
		SuccessCount:         st.SuccessCount,
		FailureCount:         st.FailureCount,
		SuccessRate:          st.SuccessRate,
		AverageLatencyMS:     float64(st.AverageLatency) / float64(time.Millisecond),
		RecentEvents:         toAPIEvents(st.Recent),
		CurrentStage:         s.recoveryService.Stage(),
		CurrentAttemptNumber: s.recoveryService.AttemptNumber(),
		Timestamp:            time.Now(),
	}

	if !st.LastSuccessAt.IsZero() {
		t := st.LastSuccessAt
		resp.LastSuccessAt = &t
	}

	if len(st.FailuresByKind) > 0 {
		resp.FailuresByKind = make(map[string]int64, len(st.FailuresByKind))
		for kind, count := range st.FailuresByKind {
			resp.FailuresByKind[string(kind)] = count
		}
	}

	if retryAt, pending := s.recoveryService.NextRetryAt(); pending {
		resp.NextRetryAt = &retryAt
	}

	for _, attempt := range s.recoveryService.History() {
		a := api.RecoveryAttempt{
			Number:    attempt.Number,
			StartedAt: attempt.StartedAt,
			Stage:     attempt.Stage,
			Outcome:   string(attempt.Outcome),
			BackoffMS: float64(attempt.Backoff) / float64(time.Millisecond),
			Error:     attempt.Err,
		}
		if !attempt.EndedAt.IsZero() {
			t := attempt.EndedAt
			a.EndedAt = &t
		}
		resp.RecoveryHistory = append(resp.RecoveryHistory, a)
	}

	return resp
}

// RunHealthCheck performs the on-demand composite probe: raw TCP
// connectivity, an authentication round-trip, and one real fetch, each
// timed. The remote probes go through the circuit breaker like every other
// call.
func (s *healthService) RunHealthCheck(ctx context.Context) *api.HealthCheckResponse {
	resp := &api.HealthCheckResponse{Timestamp: time.Now()}

	if addr := apiDialAddr(s.cfg.Telemetry.BaseURL); addr != "" {
		probe := s.probeConnectivity(ctx, addr)
		resp.Connectivity = &probe
	}

	resp.Authentication = s.probe(ctx, s.client.Authenticate)
	resp.Fetch = s.probe(ctx, func(ctx context.Context) error {
		_, err := s.client.FetchReading(ctx)
		return err
	})

	// Authentication success alone proves a limited connection; only a
	// productive fetch counts as healthy.
	switch {
	case resp.Authentication.Success && resp.Fetch.Success:
		resp.Verdict = api.VerdictHealthy
	case resp.Authentication.Success:
		resp.Verdict = api.VerdictLimited
	default:
		resp.Verdict = api.VerdictDisconnected
	}

	return resp
}

func (s *healthService) probe(ctx context.Context, op func(ctx context.Context) error) api.ProbeResult {
	start := time.Now()
	err := s.circuitBreaker.Execute(ctx, op)
	result := api.ProbeResult{
		Success:    err == nil,
		DurationMS: float64(time.Since(start)) / float64(time.Millisecond),
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

func (s *healthService) probeConnectivity(ctx context.Context, addr string) api.ProbeResult {
	dialer := net.Dialer{Timeout: 5 * time.Second}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	result := api.ProbeResult{
		Success:    err == nil,
		DurationMS: float64(time.Since(start)) / float64(time.Millisecond),
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	_ = conn.Close()
	return result
}

func (s *healthService) checkDatabaseHealth() api.ComponentStatus {
	if s.repo == nil {
		return api.ComponentDisabled
	}
	if err := s.repo.Ping(); err != nil {
		return api.ComponentDisconnected
	}
	return api.ComponentConnected
}

func (s *healthService) checkRedisHealth() api.ComponentStatus {
	if s.redisClient == nil {
		return api.ComponentDisabled
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return api.ComponentDisconnected
	}

	return api.ComponentConnected
}

func toAPIEvents(events []stats.CallEvent) []api.CallEvent {
	out := make([]api.CallEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, api.CallEvent{
			At:        ev.At,
			Outcome:   string(ev.Outcome),
			LatencyMS: float64(ev.Latency) / float64(time.Millisecond),
			ErrorKind: string(ev.ErrorKind),
		})
	}
	return out
}

// apiDialAddr derives the host:port the connectivity probe should dial from
// the configured base URL.
func apiDialAddr(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "http":
			host = net.JoinHostPort(u.Hostname(), "80")
		default:
			host = net.JoinHostPort(u.Hostname(), "443")
		}
	}
	return host
}
