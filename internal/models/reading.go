// Package models defines data structures used throughout the application.
package models

import "time"

// Reading is an immutable snapshot of the latest successfully fetched
// telemetry. It is replaced wholesale on each successful fetch and is never
// cleared on failure; consumers see the last known values with their age.
type Reading struct {
	StateOfCharge   float64   `db:"state_of_charge" json:"state_of_charge"`
	GridPower       float64   `db:"grid_power" json:"grid_power"`
	HousePower      float64   `db:"house_power" json:"house_power"`
	BatteryPower    float64   `db:"battery_power" json:"battery_power"`
	PVPower         float64   `db:"pv_power" json:"pv_power"`
	RemoteCreatedAt string    `db:"remote_created_at" json:"remote_created_at"`
	FetchedAt       time.Time `db:"fetched_at" json:"fetched_at"`
}

// Age returns how old the reading is relative to now.
func (r *Reading) Age(now time.Time) time.Duration {
	return now.Sub(r.FetchedAt)
}

// Settings carries the remote-side parameters the daemon can push upstream.
// The semantics of the fields belong to the remote service; the daemon only
// routes the update through the circuit breaker.
type Settings struct {
	ChargeCapPercent   float64 `json:"charge_cap_percent"`
	DischargeCutoffPct float64 `json:"discharge_cutoff_percent"`
}
