package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is the periodic callback. It receives the tick time so freshness
// evaluation uses the scheduler's clock, not its own.
type Task func(ctx context.Context, now time.Time) error

// Scheduler drives one periodic task on a fixed cadence.
type Scheduler struct {
	logger    *zap.Logger
	name      string
	interval  time.Duration
	task      Task
	stopCh    chan struct{}
	doneCh    chan struct{}
	isRunning bool
	mu        sync.RWMutex
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger *zap.Logger, name string, interval time.Duration, task Task) *Scheduler {
	return &Scheduler{
		logger:   logger,
		name:     name,
		interval: interval,
		task:     task,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerAlreadyRunning
	}

	s.isRunning = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(ctx)

	s.logger.Info("Scheduler started",
		zap.String("name", s.name),
		zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the scheduler and waits for the loop to exit.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()

	s.logger.Info("Scheduler stopped", zap.String("name", s.name))
	return nil
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// run executes the scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)
	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	// Execute immediately on start
	if err := s.executeTask(ctx, time.Now()); err != nil {
		s.logger.Error("Failed to execute initial task",
			zap.String("name", s.name), zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context canceled", zap.String("name", s.name))
			return
		case <-s.stopCh:
			s.logger.Debug("Scheduler stop signal received", zap.String("name", s.name))
			return
		case now := <-ticker.C:
			if err := s.executeTask(ctx, now); err != nil {
				s.logger.Error("Failed to execute scheduled task",
					zap.String("name", s.name), zap.Error(err))
			}
		}
	}
}

// executeTask runs the task with a deadline bounded by the tick interval so
// a hung task cannot pile up behind the next tick.
func (s *Scheduler) executeTask(ctx context.Context, now time.Time) error {
	timeout := s.interval
	if timeout > 2*time.Second {
		timeout -= time.Second
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.task(taskCtx, now)
	if err != nil {
		s.logger.Warn("Task execution failed",
			zap.String("name", s.name), zap.Error(err))
	}
	return err
}
