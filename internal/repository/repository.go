// Package repository persists the diagnostics history: an archive of
// fetched readings and the recovery event log.
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// repositoryImpl is the concrete implementation of Repository interface.
type repositoryImpl struct {
	db       *sqlx.DB
	readings ReadingRepository
	events   EventRepository
}

// NewRepository creates a new repository instance.
func NewRepository(db *sqlx.DB) Repository {
	return &repositoryImpl{
		db:       db,
		readings: NewReadingRepository(db),
		events:   NewEventRepository(db),
	}
}

// Readings returns the readings archive repository.
func (r *repositoryImpl) Readings() ReadingRepository {
	return r.readings
}

// Events returns the recovery event log repository.
func (r *repositoryImpl) Events() EventRepository {
	return r.events
}

// Ping checks if the database connection is healthy.
func (r *repositoryImpl) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return r.db.PingContext(ctx)
}
