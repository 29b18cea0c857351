package service

import "github.com/mpetrenko/telewatch/internal/api"

type HealthStatus struct {
	Status          api.HealthState     `json:"status"`
	CircuitState    api.CircuitState    `json:"circuit_state"`
	SchedulerStatus api.SchedulerStatus `json:"scheduler_status"`
	DatabaseStatus  api.ComponentStatus `json:"database_status"`
	RedisStatus     api.ComponentStatus `json:"redis_status"`
	BreakerSummary  string              `json:"breaker_summary,omitempty"`
}
