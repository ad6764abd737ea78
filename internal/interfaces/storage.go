package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/memoro/internal/models"
)

// JobStorage persists job records. All mutations must be atomic with
// respect to other workers operating on the same job.
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListJobs(ctx context.Context, status models.JobStatus, limit int) ([]*models.Job, error)
}

// DeadLetterStorage persists quarantine records for inspection.
type DeadLetterStorage interface {
	SaveDeadLetter(ctx context.Context, dl *models.DeadLetter) error
	ListDeadLetters(ctx context.Context, limit int) ([]*models.DeadLetter, error)
	DeleteDeadLettersBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// DeckStorage is the opaque pass-through port for saved decks.
type DeckStorage interface {
	SaveDeck(ctx context.Context, deck *models.Deck) error
	GetDeckHistory(ctx context.Context, limit int) ([]*models.Deck, error)
}

// QuizStorage is the opaque pass-through port for quiz attempts.
type QuizStorage interface {
	SaveQuizResult(ctx context.Context, result *models.QuizResult) error
	GetQuizHistory(ctx context.Context, limit int) ([]*models.QuizResult, error)
}

// MetricStorage appends generation metrics. Append-only; safe for
// concurrent writers without coordination.
type MetricStorage interface {
	AppendMetric(ctx context.Context, metric *models.GenerationMetric) error
	ListMetrics(ctx context.Context, limit int) ([]*models.GenerationMetric, error)
}
