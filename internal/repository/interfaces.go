package repository

import "github.com/mpetrenko/telewatch/internal/models"

// Repository interface defines all repository operations. The diagnostics
// store is optional; the daemon runs without it.
type Repository interface {
	// Ping checks database connectivity
	Ping() error

	// Readings returns the readings archive repository
	Readings() ReadingRepository

	// Events returns the recovery event log repository
	Events() EventRepository
}

// ReadingRepository archives successfully fetched readings.
type ReadingRepository interface {
	Insert(reading *models.Reading) error
	Latest() (*models.Reading, error)
	Recent(limit int) ([]*models.Reading, error)
	Prune(keep int) error
}

// EventRepository is the durable recovery/connection event log.
type EventRepository interface {
	Insert(event *models.RecoveryEvent) error
	Recent(limit int) ([]*models.RecoveryEvent, error)
	Prune(keep int) error
}
