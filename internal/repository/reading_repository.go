package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mpetrenko/telewatch/internal/models"
)

type readingRepository struct {
	db *sqlx.DB
}

func NewReadingRepository(db *sqlx.DB) ReadingRepository {
	return &readingRepository{
		db: db,
	}
}

// Insert archives a successfully fetched reading.
func (r *readingRepository) Insert(reading *models.Reading) error {
	query := `
		INSERT INTO readings (state_of_charge, grid_power, house_power, battery_power, pv_power, remote_created_at, fetched_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(query,
		reading.StateOfCharge,
		reading.GridPower,
		reading.HousePower,
		reading.BatteryPower,
		reading.PVPower,
		reading.RemoteCreatedAt,
		reading.FetchedAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	return nil
}

// Latest returns the most recently archived reading, or nil when the
// archive is empty.
func (r *readingRepository) Latest() (*models.Reading, error) {
	query := `
		SELECT state_of_charge, grid_power, house_power, battery_power, pv_power, remote_created_at, fetched_at
		FROM readings
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	var reading models.Reading
	err := r.db.Get(&reading, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest reading: %w", err)
	}

	return &reading, nil
}

// Recent returns up to limit archived readings, newest first.
func (r *readingRepository) Recent(limit int) ([]*models.Reading, error) {
	query := `
		SELECT state_of_charge, grid_power, house_power, battery_power, pv_power, remote_created_at, fetched_at
		FROM readings
		ORDER BY fetched_at DESC
		LIMIT $1
	`

	var readings []*models.Reading
	err := r.db.Select(&readings, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent readings: %w", err)
	}

	return readings, nil
}

// Prune drops everything but the newest keep rows.
func (r *readingRepository) Prune(keep int) error {
	query := `
		DELETE FROM readings
		WHERE id NOT IN (
			SELECT id FROM readings ORDER BY fetched_at DESC LIMIT $1
		)
	`

	_, err := r.db.Exec(query, keep)
	if err != nil {
		return fmt.Errorf("failed to prune readings: %w", err)
	}

	return nil
}
