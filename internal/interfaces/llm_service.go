package interfaces

import (
	"context"

	"github.com/ternarybob/memoro/internal/models"
)

// GenerationBackend is the uniform capability surface over one concrete
// LLM backend (hosted API or local runtime). All methods are fallible;
// callers must treat a failed optional capability as "skip, do not block".
type GenerationBackend interface {
	// Runtime returns the backend identifier.
	Runtime() models.Runtime

	// Summarize returns a short topic summary.
	Summarize(ctx context.Context, topic string) (string, error)

	// RefineQuery turns a topic (optionally disambiguated by a parent
	// topic) into a web search query.
	RefineQuery(ctx context.Context, topic, parentTopic string) (string, error)

	// ListSubTopics returns 3-5 advanced sub-topics for deep-dive mode.
	ListSubTopics(ctx context.Context, topic string) ([]string, error)

	// GenerateFromText produces raw flashcards from a combined context.
	GenerateFromText(ctx context.Context, contextText, topic string, count int) ([]models.RawCard, error)

	// GenerateQuizFromCards produces raw quiz questions grounded on cards.
	GenerateQuizFromCards(ctx context.Context, cards []models.Flashcard, count int) ([]models.RawQuestion, error)

	// GenerateQuizFromTopic produces raw quiz questions grounded on a topic.
	GenerateQuizFromTopic(ctx context.Context, topic string, count int, contextText string) ([]models.RawQuestion, error)

	// RepairCards asks the backend to fix/complete malformed card output.
	// Used for the single repair pass before deterministic padding.
	RepairCards(ctx context.Context, malformed, topic string, count int) ([]models.RawCard, error)
}

// BackendResolver maps a runtime identifier to a backend. Resolution is a
// pure lookup; unknown identifiers yield an explicit error, never nil.
type BackendResolver interface {
	Resolve(runtime models.Runtime) (GenerationBackend, error)
	Default() GenerationBackend
	Runtimes() []models.Runtime
}
