package interfaces

import (
	"context"

	"github.com/ternarybob/memoro/internal/models"
)

// GenerationService is the retrieval orchestrator: it composes search,
// scraping and backend generation into the end-to-end use cases.
type GenerationService interface {
	GenerateFlashcards(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
	GenerateQuiz(ctx context.Context, req models.QuizRequest) ([]models.QuizQuestion, error)
}

// ProgressFunc reports coarse job progress (0-100) during a long call.
type ProgressFunc func(progress int)

// JobEvent is a job status transition published to stream subscribers.
type JobEvent struct {
	JobID    string           `json:"job_id"`
	Status   models.JobStatus `json:"status"`
	Progress int              `json:"progress"`
	Attempts int              `json:"attempts"`
	Error    string           `json:"error,omitempty"`
}

// JobEventPublisher fans job status transitions out to subscribers.
// Publishing is best effort and must never block the worker.
type JobEventPublisher interface {
	Publish(event JobEvent)
}
