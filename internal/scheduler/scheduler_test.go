package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/models"
)

// sweepRecorder captures retention sweep calls.
type sweepRecorder struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int
}

func (s *sweepRecorder) SaveDeadLetter(ctx context.Context, dl *models.DeadLetter) error {
	return nil
}

func (s *sweepRecorder) ListDeadLetters(ctx context.Context, limit int) ([]*models.DeadLetter, error) {
	return nil, nil
}

func (s *sweepRecorder) DeleteDeadLettersBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.deleted, nil
}

func (s *sweepRecorder) calls() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.cutoffs...)
}

func TestSweepUsesRetentionCutoff(t *testing.T) {
	storage := &sweepRecorder{deleted: 2}
	s := NewScheduler(storage, 48*time.Hour, "0 * * * *", arbor.NewLogger())

	before := time.Now().Add(-48 * time.Hour)
	s.sweepDeadLetters()
	after := time.Now().Add(-48 * time.Hour)

	calls := storage.calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Before(before))
	assert.False(t, calls[0].After(after))
}

func TestSchedulerStartStop(t *testing.T) {
	storage := &sweepRecorder{}
	s := NewScheduler(storage, time.Hour, "@every 1h", arbor.NewLogger())

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "double start is rejected")

	s.Stop()
	s.Stop() // idempotent
}

func TestSchedulerRunsOnSchedule(t *testing.T) {
	storage := &sweepRecorder{}
	s := NewScheduler(storage, time.Hour, "@every 100ms", arbor.NewLogger())

	require.NoError(t, s.Start())
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(storage.calls()) > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("sweep never ran")
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&sweepRecorder{}, time.Hour, "not a cron expression", arbor.NewLogger())
	assert.Error(t, s.Start())
}

func TestSchedulerDefaults(t *testing.T) {
	s := NewScheduler(&sweepRecorder{}, 0, "", arbor.NewLogger())
	assert.Equal(t, 7*24*time.Hour, s.retention)
	assert.Equal(t, "0 * * * *", s.schedule)
}
