package stats_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrenko/telewatch/internal/remote"
	"github.com/mpetrenko/telewatch/internal/stats"
)

func TestConnectionStats_SuccessResetsStreak(t *testing.T) {
	s := stats.NewConnectionStats(10)

	s.RecordFailure(remote.KindNetwork)
	s.RecordFailure(remote.KindTimeout)
	assert.Equal(t, 2, s.ConsecutiveFailures())

	s.RecordSuccess(50 * time.Millisecond)
	assert.Equal(t, 0, s.ConsecutiveFailures())
	assert.False(t, s.LastSuccessAt().IsZero())
}

func TestConnectionStats_ShortCircuitLeavesStreakUntouched(t *testing.T) {
	s := stats.NewConnectionStats(10)

	s.RecordFailure(remote.KindNetwork)
	s.RecordShortCircuit()
	s.RecordShortCircuit()

	assert.Equal(t, 1, s.ConsecutiveFailures())

	snap := s.Snapshot()
	assert.Equal(t, int64(1), snap.FailureCount)
	assert.Equal(t, int64(2), snap.ShortCircuitCount)
}

func TestConnectionStats_SuccessRateExcludesShortCircuits(t *testing.T) {
	s := stats.NewConnectionStats(10)

	s.RecordSuccess(10 * time.Millisecond)
	s.RecordFailure(remote.KindNetwork)
	s.RecordShortCircuit()
	s.RecordShortCircuit()

	snap := s.Snapshot()
	// 1 success out of 2 dispatched calls; the refusals never reached the
	// remote and must not drag the rate down.
	assert.InDelta(t, 0.5, snap.SuccessRate, 1e-9)
}

func TestConnectionStats_SuccessRateDefaultsToOne(t *testing.T) {
	s := stats.NewConnectionStats(10)
	assert.InDelta(t, 1.0, s.Snapshot().SuccessRate, 1e-9)

	s.RecordShortCircuit()
	assert.InDelta(t, 1.0, s.Snapshot().SuccessRate, 1e-9)
}

func TestConnectionStats_RingEvictsOldest(t *testing.T) {
	s := stats.NewConnectionStats(3)

	s.RecordFailure(remote.KindNetwork)
	s.RecordFailure(remote.KindAuth)
	s.RecordFailure(remote.KindTimeout)
	s.RecordSuccess(5 * time.Millisecond)

	snap := s.Snapshot()
	require.Len(t, snap.Recent, 3)
	assert.Equal(t, remote.KindAuth, snap.Recent[0].ErrorKind)
	assert.Equal(t, stats.OutcomeSuccess, snap.Recent[2].Outcome)

	// Counters outlive evicted ring entries.
	assert.Equal(t, int64(3), snap.FailureCount)
	assert.Equal(t, int64(1), snap.SuccessCount)
}

func TestConnectionStats_AverageLatency(t *testing.T) {
	s := stats.NewConnectionStats(10)

	s.RecordSuccess(100 * time.Millisecond)
	s.RecordSuccess(300 * time.Millisecond)
	s.RecordFailure(remote.KindNetwork)

	assert.Equal(t, 200*time.Millisecond, s.Snapshot().AverageLatency)
}

func TestConnectionStats_FailuresByKind(t *testing.T) {
	s := stats.NewConnectionStats(10)

	s.RecordFailure(remote.KindNetwork)
	s.RecordFailure(remote.KindNetwork)
	s.RecordFailure(remote.KindAuth)

	snap := s.Snapshot()
	assert.Equal(t, int64(2), snap.FailuresByKind[remote.KindNetwork])
	assert.Equal(t, int64(1), snap.FailuresByKind[remote.KindAuth])
}

func TestConnectionStats_ConcurrentRecording(t *testing.T) {
	s := stats.NewConnectionStats(50)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.RecordSuccess(time.Millisecond)
				s.RecordFailure(remote.KindNetwork)
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, int64(200), snap.SuccessCount)
	assert.Equal(t, int64(200), snap.FailureCount)
	assert.Len(t, snap.Recent, 50)
}
