package health_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpetrenko/telewatch/internal/health"
)

func TestStalenessDetector_FreshDataNeverStale(t *testing.T) {
	d := health.NewStalenessDetector(300*time.Second, 3)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eval := d.Evaluate(now, now.Add(-120*time.Second))

	assert.False(t, eval.Stale)
	assert.Equal(t, 120*time.Second, eval.Age)
	assert.Equal(t, 0, eval.Consecutive)
}

func TestStalenessDetector_ThresholdHysteresis(t *testing.T) {
	d := health.NewStalenessDetector(300*time.Second, 3)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-700 * time.Second)

	// Two stale evaluations are still below threshold.
	eval := d.Evaluate(now, last)
	assert.False(t, eval.Stale)
	assert.Equal(t, 1, eval.Consecutive)

	eval = d.Evaluate(now.Add(2*time.Minute), last)
	assert.False(t, eval.Stale)
	assert.Equal(t, 2, eval.Consecutive)

	// Third consecutive stale check crosses the threshold.
	eval = d.Evaluate(now.Add(4*time.Minute), last)
	assert.True(t, eval.Stale)
	assert.Equal(t, 3, eval.Consecutive)

	// And stays stale while the data does not refresh.
	eval = d.Evaluate(now.Add(6*time.Minute), last)
	assert.True(t, eval.Stale)
	assert.Equal(t, 4, eval.Consecutive)
}

func TestStalenessDetector_FreshEvaluationResetsCounter(t *testing.T) {
	d := health.NewStalenessDetector(300*time.Second, 3)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	d.Evaluate(now, now.Add(-400*time.Second))
	d.Evaluate(now, now.Add(-400*time.Second))
	assert.Equal(t, 2, d.Consecutive())

	// One fresh reading wipes the streak; staleness must re-accumulate from
	// scratch.
	eval := d.Evaluate(now, now.Add(-10*time.Second))
	assert.False(t, eval.Stale)
	assert.Equal(t, 0, eval.Consecutive)

	eval = d.Evaluate(now, now.Add(-400*time.Second))
	assert.Equal(t, 1, eval.Consecutive)
}

func TestStalenessDetector_AgeExactlyAtLimitIsFresh(t *testing.T) {
	d := health.NewStalenessDetector(300*time.Second, 3)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eval := d.Evaluate(now, now.Add(-300*time.Second))

	assert.Equal(t, 0, eval.Consecutive)
}

func TestStalenessDetector_NoSuccessYetCountsStale(t *testing.T) {
	d := health.NewStalenessDetector(300*time.Second, 2)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	eval := d.Evaluate(now, time.Time{})
	assert.False(t, eval.Stale)
	assert.Equal(t, time.Duration(-1), eval.Age)

	eval = d.Evaluate(now, time.Time{})
	assert.True(t, eval.Stale)
}

func TestStalenessDetector_ZeroThresholdUsesDefault(t *testing.T) {
	d := health.NewStalenessDetector(300*time.Second, 0)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-400 * time.Second)

	var eval health.Evaluation
	for i := 0; i < health.DefaultStaleChecksThreshold; i++ {
		eval = d.Evaluate(now, last)
	}
	assert.True(t, eval.Stale)
}
