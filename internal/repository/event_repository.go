package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mpetrenko/telewatch/internal/models"
)

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{
		db: db,
	}
}

// Insert appends one recovery event to the audit log.
func (r *eventRepository) Insert(event *models.RecoveryEvent) error {
	query := `
		INSERT INTO recovery_events (cycle_id, trigger_reason, stage, outcome, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(query,
		event.CycleID,
		event.Trigger,
		event.Stage,
		event.Outcome,
		event.Detail,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recovery event: %w", err)
	}

	return nil
}

// Recent returns up to limit events, newest first.
func (r *eventRepository) Recent(limit int) ([]*models.RecoveryEvent, error) {
	query := `
		SELECT id, cycle_id, trigger_reason, stage, outcome, detail, created_at
		FROM recovery_events
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	var events []*models.RecoveryEvent
	err := r.db.Select(&events, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent recovery events: %w", err)
	}

	return events, nil
}

// Prune drops everything but the newest keep rows, keeping the log bounded.
func (r *eventRepository) Prune(keep int) error {
	query := `
		DELETE FROM recovery_events
		WHERE id NOT IN (
			SELECT id FROM recovery_events ORDER BY created_at DESC, id DESC LIMIT $1
		)
	`

	_, err := r.db.Exec(query, keep)
	if err != nil {
		return fmt.Errorf("failed to prune recovery events: %w", err)
	}

	return nil
}
