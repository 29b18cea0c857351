// Package stats tracks rolling counters and a bounded history of call
// outcomes against the remote telemetry API. It is purely observational:
// recording never fails and never blocks beyond a single mutex.
package stats

import (
	"sync"
	"time"

	"github.com/mpetrenko/telewatch/internal/remote"
)

// DefaultCapacity bounds the recent-event ring when no capacity is given.
const DefaultCapacity = 100

// Outcome classifies one recorded call.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeFailure      Outcome = "failure"
	OutcomeShortCircuit Outcome = "short_circuit"
)

// CallEvent is one entry of the bounded diagnostics ring.
type CallEvent struct {
	At        time.Time
	Outcome   Outcome
	Latency   time.Duration
	ErrorKind remote.ErrorKind
}

// Snapshot is a consistent copy of the counters for diagnostics.
type Snapshot struct {
	SuccessCount        int64
	FailureCount        int64
	ShortCircuitCount   int64
	ConsecutiveFailures int
	LastSuccessAt       time.Time
	SuccessRate         float64
	AverageLatency      time.Duration
	FailuresByKind      map[remote.ErrorKind]int64
	Recent              []CallEvent
}

// ConnectionStats serializes all writers behind one mutex; updates are
// linearized per call so concurrent recorders never lose an update.
type ConnectionStats struct {
	mu sync.Mutex

	capacity            int
	events              []CallEvent
	successCount        int64
	failureCount        int64
	shortCircuitCount   int64
	consecutiveFailures int
	lastSuccessAt       time.Time
	failuresByKind      map[remote.ErrorKind]int64
}

// NewConnectionStats creates stats with the given ring capacity; zero or
// negative means DefaultCapacity.
func NewConnectionStats(capacity int) *ConnectionStats {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ConnectionStats{
		capacity:       capacity,
		events:         make([]CallEvent, 0, capacity),
		failuresByKind: make(map[remote.ErrorKind]int64),
	}
}

// RecordSuccess records a successful call with its latency. Any success
// resets the consecutive-failure streak.
func (s *ConnectionStats) RecordSuccess(latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.successCount++
	s.consecutiveFailures = 0
	s.lastSuccessAt = time.Now()
	s.push(CallEvent{At: s.lastSuccessAt, Outcome: OutcomeSuccess, Latency: latency})
}

// RecordFailure records a failed call classified by error kind.
func (s *ConnectionStats) RecordFailure(kind remote.ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failureCount++
	s.consecutiveFailures++
	s.failuresByKind[kind]++
	s.push(CallEvent{At: time.Now(), Outcome: OutcomeFailure, ErrorKind: kind})
}

// RecordShortCircuit records a call the breaker refused to dispatch. The
// operation never ran, so the failure streak is left untouched.
func (s *ConnectionStats) RecordShortCircuit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shortCircuitCount++
	s.push(CallEvent{At: time.Now(), Outcome: OutcomeShortCircuit, ErrorKind: remote.KindCircuitOpen})
}

// ConsecutiveFailures returns the current failure streak.
func (s *ConnectionStats) ConsecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveFailures
}

// LastSuccessAt returns when the last successful call completed; zero if
// none has succeeded yet.
func (s *ConnectionStats) LastSuccessAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSuccessAt
}

// Snapshot returns a consistent copy of all counters and the recent ring.
func (s *ConnectionStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := make([]CallEvent, len(s.events))
	copy(recent, s.events)

	byKind := make(map[remote.ErrorKind]int64, len(s.failuresByKind))
	for k, v := range s.failuresByKind {
		byKind[k] = v
	}

	return Snapshot{
		SuccessCount:        s.successCount,
		FailureCount:        s.failureCount,
		ShortCircuitCount:   s.shortCircuitCount,
		ConsecutiveFailures: s.consecutiveFailures,
		LastSuccessAt:       s.lastSuccessAt,
		SuccessRate:         s.successRate(),
		AverageLatency:      s.averageLatency(),
		FailuresByKind:      byKind,
		Recent:              recent,
	}
}

// push appends to the ring, evicting the oldest entry at capacity.
func (s *ConnectionStats) push(ev CallEvent) {
	if len(s.events) >= s.capacity {
		copy(s.events, s.events[1:])
		s.events = s.events[:len(s.events)-1]
	}
	s.events = append(s.events, ev)
}

// successRate is computed over the dispatched calls in the ring window;
// short-circuited calls never reached the remote and are excluded. Defaults
// to 1.0 with no history.
func (s *ConnectionStats) successRate() float64 {
	var success, total int
	for _, ev := range s.events {
		switch ev.Outcome {
		case OutcomeSuccess:
			success++
			total++
		case OutcomeFailure:
			total++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(success) / float64(total)
}

func (s *ConnectionStats) averageLatency() time.Duration {
	var sum time.Duration
	var n int
	for _, ev := range s.events {
		if ev.Outcome == OutcomeSuccess {
			sum += ev.Latency
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / time.Duration(n)
}
