package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/models"
	"github.com/mpetrenko/telewatch/internal/recovery"
)

type recoveryService struct {
	orchestrator *recovery.Orchestrator
	logger       *zap.Logger
}

func NewRecoveryService(orchestrator *recovery.Orchestrator, logger *zap.Logger) RecoveryService {
	return &recoveryService{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Force requests an immediate recovery cycle at manual precedence: it
// cancels a pending backoff wait but is a no-op while a cycle is in flight.
func (s *recoveryService) Force() bool {
	started := s.orchestrator.Trigger(models.TriggerManual)
	if started {
		s.logger.Info("Manual recovery requested")
	} else {
		s.logger.Info("Manual recovery requested but a cycle is already running")
	}
	return started
}

func (s *recoveryService) Active() bool {
	return s.orchestrator.Active()
}

func (s *recoveryService) Stage() string {
	return s.orchestrator.Stage()
}

func (s *recoveryService) AttemptNumber() int {
	return s.orchestrator.AttemptNumber()
}

func (s *recoveryService) History() []models.RecoveryAttempt {
	return s.orchestrator.History()
}

func (s *recoveryService) NextRetryAt() (time.Time, bool) {
	return s.orchestrator.NextRetryAt()
}
