package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// MetricStorage implements the MetricStorage interface for Badger.
// Append-only; metrics are never updated after the initial write.
type MetricStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewMetricStorage creates a new MetricStorage instance
func NewMetricStorage(db *BadgerDB, logger arbor.ILogger) interfaces.MetricStorage {
	return &MetricStorage{
		db:     db,
		logger: logger,
	}
}

func (s *MetricStorage) AppendMetric(ctx context.Context, metric *models.GenerationMetric) error {
	if metric == nil {
		return fmt.Errorf("metric is required")
	}
	if metric.ID == "" {
		return fmt.Errorf("metric ID is required")
	}

	if err := s.db.Store().Insert(metric.ID, metric); err != nil {
		return fmt.Errorf("failed to append metric: %w", err)
	}
	return nil
}

func (s *MetricStorage) ListMetrics(ctx context.Context, limit int) ([]*models.GenerationMetric, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var metrics []models.GenerationMetric
	if err := s.db.Store().Find(&metrics, query); err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}

	result := make([]*models.GenerationMetric, len(metrics))
	for i := range metrics {
		result[i] = &metrics[i]
	}
	return result, nil
}
