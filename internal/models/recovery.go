package models

import (
	"database/sql"
	"time"
)

// RecoveryOutcome is the terminal status of one recovery cycle.
type RecoveryOutcome string

const (
	RecoveryPending   RecoveryOutcome = "pending"
	RecoverySucceeded RecoveryOutcome = "succeeded"
	RecoveryFailed    RecoveryOutcome = "failed"
)

// TriggerReason identifies what started a recovery cycle.
type TriggerReason string

const (
	TriggerStaleness TriggerReason = "staleness"
	TriggerManual    TriggerReason = "manual"
	TriggerScheduled TriggerReason = "scheduled"
	TriggerRetry     TriggerReason = "retry"
)

// RecoveryAttempt records one cycle of the recovery sequence. The history of
// attempts is kept in memory until a cycle fully succeeds, then cleared.
type RecoveryAttempt struct {
	Number    int             `json:"number"`
	StartedAt time.Time       `json:"started_at"`
	Backoff   time.Duration   `json:"backoff"`
	Stage     string          `json:"stage"`
	Outcome   RecoveryOutcome `json:"outcome"`
	Err       string          `json:"error,omitempty"`
	EndedAt   time.Time       `json:"ended_at,omitempty"`
}

// RecoveryEvent is a persisted audit row describing one step of a recovery
// cycle. Rows are written only when the diagnostics store is enabled.
type RecoveryEvent struct {
	ID        int64          `db:"id" json:"id"`
	CycleID   string         `db:"cycle_id" json:"cycle_id"`
	Trigger   string         `db:"trigger_reason" json:"trigger"`
	Stage     string         `db:"stage" json:"stage"`
	Outcome   string         `db:"outcome" json:"outcome"`
	Detail    sql.NullString `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
