// Package health contains staleness detection with hysteresis and the
// periodic health monitor driving recovery decisions.
package health

import "time"

// DefaultStaleChecksThreshold is the number of consecutive stale evaluations
// required before staleness is reported. A single slow tick never triggers
// recovery.
const DefaultStaleChecksThreshold = 3

// Evaluation is the result of one staleness check.
type Evaluation struct {
	// Stale is true only once the consecutive counter reaches the threshold.
	Stale bool

	// Age of the data at evaluation time; negative when no success yet.
	Age time.Duration

	// Consecutive is the current count of stale evaluations in a row.
	Consecutive int
}

// StalenessDetector compares data age against a threshold, counting
// consecutive stale evaluations for hysteresis. The counter is its only
// mutable state; it never fails.
//
// Not safe for concurrent use: it is driven solely by the monitor tick.
type StalenessDetector struct {
	maxAge      time.Duration
	threshold   int
	consecutive int
}

func NewStalenessDetector(maxAge time.Duration, threshold int) *StalenessDetector {
	if threshold <= 0 {
		threshold = DefaultStaleChecksThreshold
	}
	return &StalenessDetector{
		maxAge:    maxAge,
		threshold: threshold,
	}
}

// Evaluate computes the data age at now and updates the consecutive-stale
// counter: stale evaluations increment it, fresh ones reset it to zero. A
// zero lastSuccessAt (no fetch has ever succeeded) counts as stale.
func (d *StalenessDetector) Evaluate(now, lastSuccessAt time.Time) Evaluation {
	if lastSuccessAt.IsZero() {
		d.consecutive++
		return Evaluation{
			Stale:       d.consecutive >= d.threshold,
			Age:         -1,
			Consecutive: d.consecutive,
		}
	}

	age := now.Sub(lastSuccessAt)
	if age > d.maxAge {
		d.consecutive++
	} else {
		d.consecutive = 0
	}

	return Evaluation{
		Stale:       d.consecutive >= d.threshold,
		Age:         age,
		Consecutive: d.consecutive,
	}
}

// Consecutive returns the current counter value.
func (d *StalenessDetector) Consecutive() int {
	return d.consecutive
}
