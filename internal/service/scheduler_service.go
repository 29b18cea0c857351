package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/config"
	"github.com/mpetrenko/telewatch/internal/health"
	"github.com/mpetrenko/telewatch/internal/scheduler"
)

// schedulerService runs the two loops of the daemon: the telemetry poll at
// the scan interval and the heartbeat check at the heartbeat interval.
type schedulerService struct {
	poll      *scheduler.Scheduler
	heartbeat *scheduler.Scheduler
	logger    *zap.Logger
}

func NewSchedulerService(
	cfg *config.Config,
	telemetryService TelemetryService,
	monitor *health.HealthMonitor,
	logger *zap.Logger,
) SchedulerService {
	scanInterval := time.Duration(cfg.Telemetry.ScanIntervalSeconds) * time.Second
	heartbeatInterval := time.Duration(cfg.Telemetry.HeartbeatIntervalSeconds) * time.Second

	svc := &schedulerService{
		logger: logger,
	}

	svc.poll = scheduler.NewScheduler(logger, "telemetry-poll", scanInterval,
		func(ctx context.Context, _ time.Time) error {
			return telemetryService.Poll(ctx)
		})

	svc.heartbeat = scheduler.NewScheduler(logger, "heartbeat", heartbeatInterval,
		func(_ context.Context, now time.Time) error {
			monitor.Tick(now)
			return nil
		})

	return svc
}

// Start launches both loops. If the heartbeat fails to start, the poll loop
// is rolled back so the pair is never half-running.
func (s *schedulerService) Start() error {
	ctx := context.Background()

	if err := s.poll.Start(ctx); err != nil {
		return err
	}
	if err := s.heartbeat.Start(ctx); err != nil {
		if stopErr := s.poll.Stop(); stopErr != nil {
			s.logger.Error("Failed to roll back poll loop", zap.Error(stopErr))
		}
		return err
	}
	return nil
}

func (s *schedulerService) Stop() error {
	var firstErr error
	if err := s.heartbeat.Stop(); err != nil {
		firstErr = err
	}
	if err := s.poll.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *schedulerService) IsRunning() bool {
	return s.poll.IsRunning() && s.heartbeat.IsRunning()
}
