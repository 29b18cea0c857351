// Package notify publishes recovery lifecycle events to an operator-facing
// webhook. The webhook endpoint is itself an external dependency, so its
// calls are guarded by their own circuit breaker; a broken notifier must
// never slow down or fail a recovery cycle.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/config"
	"github.com/mpetrenko/telewatch/internal/models"
)

// queueCapacity bounds the pending-event queue. Recovery cycles produce a
// handful of events each, so a full queue means the webhook has been down
// for a while; dropping is preferable to backing up into the cycle.
const queueCapacity = 16

// Notifier publishes recovery lifecycle events. The event methods enqueue
// and return immediately; delivery happens on the notifier's own goroutine.
type Notifier interface {
	RecoveryStarted(reason models.TriggerReason, attempt int)
	RecoverySucceeded(attempt int)
	RecoveryFailed(attempt int, stage string, retryIn time.Duration, cause error)

	// Close stops the delivery worker. Events still queued are dropped.
	Close()
}

// Event is the JSON payload posted to the webhook.
type Event struct {
	Event     string    `json:"event"`
	Trigger   string    `json:"trigger,omitempty"`
	Attempt   int       `json:"attempt"`
	Stage     string    `json:"stage,omitempty"`
	RetryIn   string    `json:"retry_in,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WebhookNotifier posts events through a gobreaker-guarded HTTP client. A
// single worker drains the queue, so events reach the webhook in order and
// the enqueueing recovery cycle never waits on the POST.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger

	events    chan Event
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewWebhookNotifier(cfg *config.NotifyConfig, logger *zap.Logger) *WebhookNotifier {
	settings := gobreaker.Settings{
		Name:        "notify-webhook",
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
		Timeout:     time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.CircuitBreaker.ConsecutiveFails && failureRatio >= cfg.CircuitBreaker.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Notifier circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	}

	n := &WebhookNotifier{
		url: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
		events: make(chan Event, queueCapacity),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go n.deliver()

	return n
}

func (n *WebhookNotifier) RecoveryStarted(reason models.TriggerReason, attempt int) {
	n.enqueue(Event{
		Event:     "recovery_started",
		Trigger:   string(reason),
		Attempt:   attempt,
		Timestamp: time.Now(),
	})
}

func (n *WebhookNotifier) RecoverySucceeded(attempt int) {
	n.enqueue(Event{
		Event:     "recovery_succeeded",
		Attempt:   attempt,
		Detail:    "reconnected to the telemetry API",
		Timestamp: time.Now(),
	})
}

func (n *WebhookNotifier) RecoveryFailed(attempt int, stage string, retryIn time.Duration, cause error) {
	n.enqueue(Event{
		Event:     "recovery_failed",
		Attempt:   attempt,
		Stage:     stage,
		RetryIn:   retryIn.Round(time.Second).String(),
		Detail:    cause.Error(),
		Timestamp: time.Now(),
	})
}

// Close stops the delivery worker and waits for it to exit. An in-flight
// POST finishes; queued events are dropped.
func (n *WebhookNotifier) Close() {
	n.closeOnce.Do(func() {
		close(n.stop)
	})
	<-n.done
}

// enqueue hands the event to the worker without blocking the caller.
func (n *WebhookNotifier) enqueue(event Event) {
	select {
	case n.events <- event:
	case <-n.stop:
	default:
		n.logger.Warn("Notification queue full, dropping event",
			zap.String("event", event.Event))
	}
}

func (n *WebhookNotifier) deliver() {
	defer close(n.done)

	for {
		select {
		case <-n.stop:
			if pending := len(n.events); pending > 0 {
				n.logger.Debug("Dropping queued notifications on shutdown",
					zap.Int("count", pending))
			}
			return
		case event := <-n.events:
			n.post(event)
		}
	}
}

func (n *WebhookNotifier) post(event Event) {
	_, err := n.cb.Execute(func() (interface{}, error) {
		payload, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), n.httpClient.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to send request: %w", err)
		}
		defer func() {
			if closeErr := resp.Body.Close(); closeErr != nil {
				n.logger.Warn("Failed to close response body", zap.Error(closeErr))
			}
		}()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusNoContent {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return nil, nil
	})

	if err != nil {
		n.logger.Warn("Failed to deliver notification",
			zap.String("event", event.Event),
			zap.Error(err))
		return
	}

	n.logger.Debug("Notification delivered", zap.String("event", event.Event))
}

// NopNotifier drops all events. Used when notifications are disabled or no
// webhook URL is configured.
type NopNotifier struct{}

func (NopNotifier) RecoveryStarted(models.TriggerReason, int)        {}
func (NopNotifier) RecoverySucceeded(int)                            {}
func (NopNotifier) RecoveryFailed(int, string, time.Duration, error) {}
func (NopNotifier) Close()                                           {}

// FromConfig returns the webhook notifier when enabled and configured, the
// nop notifier otherwise.
func FromConfig(cfg *config.NotifyConfig, logger *zap.Logger) Notifier {
	if !cfg.OnRecovery || cfg.WebhookURL == "" {
		return NopNotifier{}
	}
	return NewWebhookNotifier(cfg, logger)
}
