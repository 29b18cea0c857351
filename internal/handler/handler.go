// Package handler provides HTTP request handlers for the application.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/api"
	"github.com/mpetrenko/telewatch/internal/middleware"
	"github.com/mpetrenko/telewatch/internal/scheduler"
	"github.com/mpetrenko/telewatch/internal/service"
)

const (
	errorCodeSchedulerAlreadyRunning = "SCHEDULER_ALREADY_RUNNING"
	errorCodeSchedulerNotRunning     = "SCHEDULER_NOT_RUNNING"
	errorCodeNoReading               = "NO_READING"
)

const (
	errorMessageSchedulerAlreadyRunning = "Scheduler is already running"
	errorMessageSchedulerNotRunning     = "Scheduler is not running"
	errorMessageFailedToStartScheduler  = "Failed to start scheduler"
	errorMessageFailedToStopScheduler   = "Failed to stop scheduler"
	errorMessageNoReading               = "No reading has been fetched yet"
)

const (
	schedulerMessageStarted = "Scheduler started successfully"
	schedulerMessageStopped = "Scheduler stopped successfully"

	recoveryMessageStarted        = "Recovery cycle started"
	recoveryMessageAlreadyRunning = "A recovery cycle is already in progress"
)

type Handler struct {
	service *service.Service
	maxAge  time.Duration
	logger  *zap.Logger
}

// NewHandler creates a new handler instance over the wired service stack.
// maxAge is the staleness limit the reading endpoint reports against.
func NewHandler(service *service.Service, maxAge time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		maxAge:  maxAge,
		logger:  logger,
	}
}

// GetHealth serves the lightweight liveness summary.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health.GetHealth(r.Context())

	response := api.HealthResponse{
		Status:          health.Status,
		CircuitState:    health.CircuitState,
		SchedulerStatus: health.SchedulerStatus,
		DatabaseStatus:  health.DatabaseStatus,
		RedisStatus:     health.RedisStatus,
		BreakerSummary:  health.BreakerSummary,
		Timestamp:       time.Now(),
	}

	// Degraded still answers 200 so monitors can read the body; only a
	// recovery in flight with the circuit open reports unavailable.
	if health.Status == api.Degraded && health.CircuitState == api.CircuitOpen {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	render.JSON(w, r, response)
}

// GetDiagnostics serves the full counters, recent-call ring, and recovery
// history.
func (h *Handler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Health.GetDiagnostics(r.Context()))
}

// ForceRecovery starts a recovery cycle at manual precedence. Always 202:
// the cycle runs asynchronously and the body reports whether this request
// started it.
func (h *Handler) ForceRecovery(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	response := api.RecoveryResponse{}
	if h.service.Recovery.Force() {
		response.Status = api.RecoveryStarted
		response.Message = recoveryMessageStarted
	} else {
		response.Status = api.RecoveryAlreadyRunning
		response.Message = recoveryMessageAlreadyRunning
	}

	h.logger.Info("Manual recovery endpoint hit",
		zap.String("request_id", requestID),
		zap.String("status", string(response.Status)))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response)
}

// RunHealthCheck performs the on-demand composite probe against the remote
// API and reports the verdict.
func (h *Handler) RunHealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Health.RunHealthCheck(r.Context()))
}

// GetReading serves the latest cached telemetry reading with its age. 404
// until the first successful fetch.
func (h *Handler) GetReading(w http.ResponseWriter, r *http.Request) {
	reading, ok := h.service.Telemetry.LatestReading()
	if !ok {
		h.sendError(w, r, http.StatusNotFound, errorCodeNoReading, errorMessageNoReading)
		return
	}

	age := reading.Age(time.Now())
	render.JSON(w, r, api.ReadingResponse{
		StateOfCharge:   reading.StateOfCharge,
		GridPower:       reading.GridPower,
		HousePower:      reading.HousePower,
		BatteryPower:    reading.BatteryPower,
		PVPower:         reading.PVPower,
		RemoteCreatedAt: reading.RemoteCreatedAt,
		FetchedAt:       reading.FetchedAt,
		AgeSeconds:      age.Seconds(),
		Stale:           age > h.maxAge,
	})
}

// StartScheduler starts the poll and heartbeat loops.
func (h *Handler) StartScheduler(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	err := h.service.Scheduler.Start()
	if err != nil {
		if errors.Is(err, scheduler.ErrSchedulerAlreadyRunning) {
			h.sendError(w, r, http.StatusConflict, errorCodeSchedulerAlreadyRunning, errorMessageSchedulerAlreadyRunning)
			return
		}

		h.logger.Error("Failed to start scheduler",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToStartScheduler)
		return
	}

	render.JSON(w, r, api.SchedulerResponse{
		Status:  api.SchedulerResponseStatusStarted,
		Message: schedulerMessageStarted,
	})
}

// StopScheduler stops the poll and heartbeat loops.
func (h *Handler) StopScheduler(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	err := h.service.Scheduler.Stop()
	if err != nil {
		if errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			h.sendError(w, r, http.StatusConflict, errorCodeSchedulerNotRunning, errorMessageSchedulerNotRunning)
			return
		}

		h.logger.Error("Failed to stop scheduler",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToStopScheduler)
		return
	}

	render.JSON(w, r, api.SchedulerResponse{
		Status:  api.SchedulerResponseStatusStopped,
		Message: schedulerMessageStopped,
	})
}

func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, api.ErrorResponse{
		Error:   errorCode,
		Message: message,
		Timestamp: func() *time.Time {
			t := time.Now()
			return &t
		}(),
	})
}
