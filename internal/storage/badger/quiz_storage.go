package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// QuizStorage implements the QuizStorage interface for Badger
type QuizStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewQuizStorage creates a new QuizStorage instance
func NewQuizStorage(db *BadgerDB, logger arbor.ILogger) interfaces.QuizStorage {
	return &QuizStorage{
		db:     db,
		logger: logger,
	}
}

func (s *QuizStorage) SaveQuizResult(ctx context.Context, result *models.QuizResult) error {
	if result == nil {
		return fmt.Errorf("quiz result is required")
	}
	if result.ID == "" {
		return fmt.Errorf("quiz result ID is required")
	}

	if err := s.db.Store().Upsert(result.ID, result); err != nil {
		return fmt.Errorf("failed to save quiz result: %w", err)
	}
	return nil
}

func (s *QuizStorage) GetQuizHistory(ctx context.Context, limit int) ([]*models.QuizResult, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []models.QuizResult
	if err := s.db.Store().Find(&results, query); err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}

	out := make([]*models.QuizResult, len(results))
	for i := range results {
		out[i] = &results[i]
	}
	return out, nil
}
