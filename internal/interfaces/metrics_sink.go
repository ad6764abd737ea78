package interfaces

import (
	"context"

	"github.com/ternarybob/memoro/internal/models"
)

// MetricsSink records per-generation observability data. Best effort:
// implementations never block the pipeline and never surface errors.
type MetricsSink interface {
	Record(ctx context.Context, metric models.GenerationMetric)
}
