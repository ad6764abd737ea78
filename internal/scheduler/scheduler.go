package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
)

// Scheduler runs periodic maintenance. Currently one task: sweeping
// quarantined dead letters past their retention window.
type Scheduler struct {
	deadLetter interfaces.DeadLetterStorage
	retention  time.Duration
	schedule   string
	cron       *cron.Cron
	logger     arbor.ILogger
	running    bool
}

// NewScheduler creates a maintenance scheduler
func NewScheduler(deadLetter interfaces.DeadLetterStorage, retention time.Duration, schedule string, logger arbor.ILogger) *Scheduler {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if schedule == "" {
		schedule = "0 * * * *" // Hourly
	}

	return &Scheduler{
		deadLetter: deadLetter,
		retention:  retention,
		schedule:   schedule,
		cron:       cron.New(),
		logger:     logger,
	}
}

// Start registers the sweep task and begins the cron loop
func (s *Scheduler) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweepDeadLetters); err != nil {
		return fmt.Errorf("failed to add sweep task: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.schedule).
		Dur("retention", s.retention).
		Msg("Quarantine retention sweep scheduled")

	return nil
}

// Stop halts the cron loop, waiting for a running sweep to finish
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) sweepDeadLetters() {
	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.deadLetter.DeleteDeadLettersBefore(context.Background(), cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Dead letter sweep failed")
		return
	}
	if deleted > 0 {
		s.logger.Info().
			Int("deleted", deleted).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Swept expired dead letters")
	}
}
