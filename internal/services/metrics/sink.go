package metrics

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// Sink persists generation metrics through MetricStorage. Best effort:
// a failed write is logged at warn and never propagated, so metric
// recording can never fail a generation.
type Sink struct {
	storage interfaces.MetricStorage
	logger  arbor.ILogger
}

// NewSink creates a storage-backed metrics sink
func NewSink(storage interfaces.MetricStorage, logger arbor.ILogger) interfaces.MetricsSink {
	return &Sink{
		storage: storage,
		logger:  logger,
	}
}

func (s *Sink) Record(ctx context.Context, metric models.GenerationMetric) {
	if metric.ID == "" {
		metric.ID = common.NewMetricID()
	}

	if err := s.storage.AppendMetric(ctx, &metric); err != nil {
		s.logger.Warn().
			Err(err).
			Str("topic", metric.Topic).
			Str("runtime", string(metric.Runtime)).
			Msg("Failed to record generation metric")
		return
	}

	s.logger.Debug().
		Str("topic", metric.Topic).
		Str("runtime", string(metric.Runtime)).
		Int("card_count", metric.CardCount).
		Bool("success", metric.Success).
		Msg("Recorded generation metric")
}

var _ interfaces.MetricsSink = (*Sink)(nil)
