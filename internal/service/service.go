package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/breaker"
	"github.com/mpetrenko/telewatch/internal/config"
	"github.com/mpetrenko/telewatch/internal/health"
	"github.com/mpetrenko/telewatch/internal/models"
	"github.com/mpetrenko/telewatch/internal/notify"
	"github.com/mpetrenko/telewatch/internal/recovery"
	"github.com/mpetrenko/telewatch/internal/remote"
	"github.com/mpetrenko/telewatch/internal/repository"
	"github.com/mpetrenko/telewatch/internal/stats"
)

// Service is the composition root: the domain components wired together
// plus the service facades the HTTP surface talks to.
type Service struct {
	Telemetry TelemetryService
	Recovery  RecoveryService
	Health    HealthService
	Scheduler SchedulerService

	Monitor      *health.HealthMonitor
	Stats        *stats.ConnectionStats
	Breaker      *breaker.CircuitBreaker
	orchestrator *recovery.Orchestrator
	notifier     notify.Notifier
	logger       *zap.Logger
}

// NewService wires the full health-monitoring and recovery stack around the
// given remote client. repo and redisClient are optional (nil disables).
func NewService(
	cfg *config.Config,
	client remote.Client,
	repo repository.Repository,
	redisClient *redis.Client,
	logger *zap.Logger,
) (*Service, error) {
	connStats := stats.NewConnectionStats(cfg.Telemetry.StatsCapacity)

	cb := breaker.NewCircuitBreaker(breaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		BaseCoolDown:     time.Duration(cfg.Breaker.BaseCoolDownSeconds) * time.Second,
		MaxCoolDown:      time.Duration(cfg.Breaker.MaxCoolDownSeconds) * time.Second,
	}, connStats, logger)

	telemetryService := NewTelemetryService(cfg, client, cb, repo, redisClient, logger)

	detector := health.NewStalenessDetector(
		time.Duration(cfg.Telemetry.MaxDataAgeSeconds)*time.Second,
		cfg.Telemetry.StaleChecksThreshold,
	)
	monitor := health.NewHealthMonitor(detector, telemetryService, cb, connStats, logger)

	notifier := notify.FromConfig(&cfg.Notify, logger)

	var recorder recovery.EventRecorder
	if repo != nil {
		recorder = &repositoryRecorder{repo: repo, keep: cfg.Storage.HistoryLimit, logger: logger}
	}

	orchestrator, err := recovery.NewOrchestrator(recovery.Config{
		BaseDelay:          time.Duration(cfg.Recovery.BaseDelaySeconds) * time.Second,
		MaxDelay:           time.Duration(cfg.Recovery.MaxDelaySeconds) * time.Second,
		DegradedAfter:      cfg.Recovery.DegradedAfter,
		DailyReconnectTime: cfg.Recovery.DailyReconnectTime,
		Preflight:          cfg.Recovery.Preflight,
		PreflightAddr:      preflightAddr(cfg.Telemetry.BaseURL),
	}, client, cb, monitor, telemetryService, notifierAdapter{notifier}, recorder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build recovery orchestrator: %w", err)
	}

	monitor.SetTrigger(orchestrator)

	recoveryService := NewRecoveryService(orchestrator, logger)
	schedulerService := NewSchedulerService(cfg, telemetryService, monitor, logger)
	healthService := NewHealthService(cfg, monitor, client, cb, recoveryService, schedulerService, repo, redisClient)

	return &Service{
		Telemetry:    telemetryService,
		Recovery:     recoveryService,
		Health:       healthService,
		Scheduler:    schedulerService,
		Monitor:      monitor,
		Stats:        connStats,
		Breaker:      cb,
		orchestrator: orchestrator,
		notifier:     notifier,
		logger:       logger,
	}, nil
}

// Start brings up the recovery orchestrator and the scheduler loops.
func (s *Service) Start(ctx context.Context) error {
	if err := s.orchestrator.Start(ctx); err != nil {
		return err
	}
	return s.Scheduler.Start()
}

// Stop tears down the loops first so no new work is queued, then the
// orchestrator, which waits for an in-flight cycle to finish, and finally
// the notifier's delivery worker.
func (s *Service) Stop() {
	if s.Scheduler.IsRunning() {
		if err := s.Scheduler.Stop(); err != nil {
			s.logger.Error("Failed to stop scheduler loops", zap.Error(err))
		}
	}
	s.orchestrator.Stop()
	s.notifier.Close()
}

// notifierAdapter bridges the notify package interface into the recovery
// package's narrower dependency.
type notifierAdapter struct {
	n notify.Notifier
}

func (a notifierAdapter) RecoveryStarted(reason models.TriggerReason, attempt int) {
	a.n.RecoveryStarted(reason, attempt)
}

func (a notifierAdapter) RecoverySucceeded(attempt int) {
	a.n.RecoverySucceeded(attempt)
}

func (a notifierAdapter) RecoveryFailed(attempt int, stage string, retryIn time.Duration, cause error) {
	a.n.RecoveryFailed(attempt, stage, retryIn, cause)
}

// repositoryRecorder persists recovery events and keeps the log bounded.
// Failures are logged, never propagated into the recovery cycle.
type repositoryRecorder struct {
	repo   repository.Repository
	keep   int
	logger *zap.Logger
}

func (r *repositoryRecorder) RecordRecoveryEvent(event models.RecoveryEvent) {
	if err := r.repo.Events().Insert(&event); err != nil {
		r.logger.Warn("Failed to record recovery event", zap.Error(err))
		return
	}
	if err := r.repo.Events().Prune(r.keep); err != nil {
		r.logger.Warn("Failed to prune recovery events", zap.Error(err))
	}
}

// preflightAddr derives the host:port for the TCP preflight from the base
// URL; empty disables the probe.
func preflightAddr(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	port := u.Port()
	if port == "" {
		if u.Scheme == "http" {
			port = "80"
		} else {
			port = "443"
		}
	}
	return u.Hostname() + ":" + port
}
