package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// DeadLetterStorage implements the DeadLetterStorage interface for Badger.
// Records are write-once on quarantine and removed by the retention sweep.
type DeadLetterStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDeadLetterStorage creates a new DeadLetterStorage instance
func NewDeadLetterStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DeadLetterStorage {
	return &DeadLetterStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DeadLetterStorage) SaveDeadLetter(ctx context.Context, dl *models.DeadLetter) error {
	if dl == nil {
		return fmt.Errorf("dead letter is required")
	}
	if dl.ID == "" {
		return fmt.Errorf("dead letter ID is required")
	}

	if err := s.db.Store().Upsert(dl.ID, dl); err != nil {
		return fmt.Errorf("failed to save dead letter: %w", err)
	}
	return nil
}

func (s *DeadLetterStorage) ListDeadLetters(ctx context.Context, limit int) ([]*models.DeadLetter, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("QuarantinedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var letters []models.DeadLetter
	if err := s.db.Store().Find(&letters, query); err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}

	result := make([]*models.DeadLetter, len(letters))
	for i := range letters {
		result[i] = &letters[i]
	}
	return result, nil
}

func (s *DeadLetterStorage) DeleteDeadLettersBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var letters []models.DeadLetter
	if err := s.db.Store().Find(&letters, badgerhold.Where("QuarantinedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find expired dead letters: %w", err)
	}

	deleted := 0
	for i := range letters {
		if err := s.db.Store().Delete(letters[i].ID, &models.DeadLetter{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return deleted, fmt.Errorf("failed to delete dead letter %s: %w", letters[i].ID, err)
		}
		deleted++
	}
	return deleted, nil
}
