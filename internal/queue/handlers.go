package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// NewGenerationHandler returns the handler for flashcard generation
// jobs. On success the result is written to the job and the deck is
// saved for history. Deck persistence is best effort.
func NewGenerationHandler(svc interfaces.GenerationService, decks interfaces.DeckStorage, logger arbor.ILogger) JobHandler {
	return func(ctx context.Context, job *models.Job, report interfaces.ProgressFunc) error {
		report(10)

		result, err := svc.GenerateFlashcards(ctx, job.Request)
		if err != nil {
			return fmt.Errorf("flashcard generation failed: %w", err)
		}

		job.Result = result
		report(80)

		if decks != nil && len(result.Cards) > 0 {
			deck := &models.Deck{
				ID:        common.NewDeckID(),
				Topic:     job.Request.Topic,
				Cards:     result.Cards,
				Mode:      string(job.Request.Mode),
				CreatedAt: time.Now(),
			}
			if err := decks.SaveDeck(ctx, deck); err != nil {
				logger.Warn().
					Err(err).
					Str("job_id", job.ID).
					Msg("Failed to save generated deck")
			}
		}
		report(95)

		return nil
	}
}

// NewQuizHandler returns the handler for quiz generation jobs.
func NewQuizHandler(svc interfaces.GenerationService, logger arbor.ILogger) JobHandler {
	return func(ctx context.Context, job *models.Job, report interfaces.ProgressFunc) error {
		if job.QuizRequest == nil {
			return fmt.Errorf("quiz job %s has no quiz request", job.ID)
		}
		report(10)

		questions, err := svc.GenerateQuiz(ctx, *job.QuizRequest)
		if err != nil {
			return fmt.Errorf("quiz generation failed: %w", err)
		}

		job.QuizResult = questions
		report(90)
		return nil
	}
}
