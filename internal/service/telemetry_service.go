// Package service provides business logic implementation for the application.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/api"
	"github.com/mpetrenko/telewatch/internal/breaker"
	"github.com/mpetrenko/telewatch/internal/config"
	"github.com/mpetrenko/telewatch/internal/models"
	"github.com/mpetrenko/telewatch/internal/remote"
	"github.com/mpetrenko/telewatch/internal/repository"
)

type telemetryService struct {
	cfg            *config.Config
	client         remote.Client
	circuitBreaker *breaker.CircuitBreaker
	repo           repository.Repository
	redisClient    *redis.Client
	logger         *zap.Logger

	mu     sync.RWMutex
	latest *models.Reading
}

func NewTelemetryService(
	cfg *config.Config,
	client remote.Client,
	cb *breaker.CircuitBreaker,
	repo repository.Repository,
	redisClient *redis.Client,
	logger *zap.Logger,
) TelemetryService {
	return &telemetryService{
		cfg:            cfg,
		client:         client,
		circuitBreaker: cb,
		repo:           repo,
		redisClient:    redisClient,
		logger:         logger,
	}
}

// Poll fetches a fresh reading through the circuit breaker. On failure the
// cached reading is retained: consumers see stale data with its age, never
// a blank.
func (s *telemetryService) Poll(ctx context.Context) error {
	var reading *models.Reading

	err := s.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		r, fetchErr := s.client.FetchReading(ctx)
		if fetchErr != nil {
			return fetchErr
		}
		reading = r
		return nil
	})
	if err != nil {
		s.logger.Warn("Telemetry poll failed, keeping cached reading",
			zap.String("error_kind", string(remote.KindOf(err))),
			zap.String("circuit_state", string(s.circuitBreaker.State())),
			zap.Error(err))
		return fmt.Errorf("failed to poll telemetry: %w", err)
	}

	s.accept(reading)
	return nil
}

// AcceptRecovered feeds a reading obtained by the recovery orchestrator's
// verification fetch into the normal success path.
func (s *telemetryService) AcceptRecovered(reading *models.Reading) {
	if reading == nil {
		return
	}
	s.accept(reading)
}

// accept replaces the snapshot wholesale and fans out to the optional sinks.
func (s *telemetryService) accept(reading *models.Reading) {
	s.mu.Lock()
	s.latest = reading
	s.mu.Unlock()

	s.logger.Info("Telemetry reading refreshed",
		zap.Float64("state_of_charge", reading.StateOfCharge),
		zap.Time("fetched_at", reading.FetchedAt))

	s.publish(reading)
	s.archive(reading)
}

// publish pushes the latest reading to the Redis key for out-of-process
// consumers. Best effort.
func (s *telemetryService) publish(reading *models.Reading) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		s.logger.Warn("Failed to marshal reading for publication", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ttl := time.Duration(s.cfg.Redis.ReadingTTL) * time.Second
	if err := s.redisClient.Set(ctx, s.cfg.Redis.ReadingKey, payload, ttl).Err(); err != nil {
		s.logger.Warn("Failed to publish reading to Redis",
			zap.String("key", s.cfg.Redis.ReadingKey),
			zap.Error(err))
	}
}

// archive stores the reading in the diagnostics history. Best effort.
func (s *telemetryService) archive(reading *models.Reading) {
	if s.repo == nil {
		return
	}

	if err := s.repo.Readings().Insert(reading); err != nil {
		s.logger.Warn("Failed to archive reading", zap.Error(err))
		return
	}

	if err := s.repo.Readings().Prune(s.cfg.Storage.HistoryLimit); err != nil {
		s.logger.Warn("Failed to prune readings archive", zap.Error(err))
	}
}

// LatestReading returns the last known reading.
func (s *telemetryService) LatestReading() (*models.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// LastSuccessAt returns when data last refreshed; zero if never.
func (s *telemetryService) LastSuccessAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return time.Time{}
	}
	return s.latest.FetchedAt
}

// UpdateSettings pushes settings upstream through the circuit breaker.
func (s *telemetryService) UpdateSettings(ctx context.Context, settings models.Settings) error {
	err := s.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return s.client.UpdateSettings(ctx, settings)
	})
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	s.logger.Info("Remote settings updated")
	return nil
}

// CircuitState reports the breaker gate in wire casing.
func (s *telemetryService) CircuitState() api.CircuitState {
	return api.CircuitState(s.circuitBreaker.State())
}
