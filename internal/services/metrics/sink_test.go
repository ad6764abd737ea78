package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/models"
)

type captureStorage struct {
	metrics   []*models.GenerationMetric
	appendErr error
}

func (s *captureStorage) AppendMetric(ctx context.Context, metric *models.GenerationMetric) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.metrics = append(s.metrics, metric)
	return nil
}

func (s *captureStorage) ListMetrics(ctx context.Context, limit int) ([]*models.GenerationMetric, error) {
	return s.metrics, nil
}

func TestSinkAssignsID(t *testing.T) {
	storage := &captureStorage{}
	sink := NewSink(storage, arbor.NewLogger())

	sink.Record(context.Background(), models.GenerationMetric{Topic: "Go", Success: true})

	require.Len(t, storage.metrics, 1)
	assert.NotEmpty(t, storage.metrics[0].ID)
	assert.Equal(t, "Go", storage.metrics[0].Topic)
}

func TestSinkKeepsProvidedID(t *testing.T) {
	storage := &captureStorage{}
	sink := NewSink(storage, arbor.NewLogger())

	sink.Record(context.Background(), models.GenerationMetric{ID: "metric-fixed", Topic: "Go"})

	require.Len(t, storage.metrics, 1)
	assert.Equal(t, "metric-fixed", storage.metrics[0].ID)
}

func TestSinkSwallowsStorageErrors(t *testing.T) {
	storage := &captureStorage{appendErr: errors.New("disk full")}
	sink := NewSink(storage, arbor.NewLogger())

	// Must not panic or propagate
	sink.Record(context.Background(), models.GenerationMetric{Topic: "Go"})
	assert.Empty(t, storage.metrics)
}
