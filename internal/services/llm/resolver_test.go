package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// stubBackend implements interfaces.GenerationBackend with per-call
// overrides for fallback behavior tests.
type stubBackend struct {
	runtime       models.Runtime
	summarizeErr  error
	summarizeText string
	calls         int
}

func (s *stubBackend) Runtime() models.Runtime { return s.runtime }

func (s *stubBackend) Summarize(ctx context.Context, topic string) (string, error) {
	s.calls++
	if s.summarizeErr != nil {
		return "", s.summarizeErr
	}
	return s.summarizeText, nil
}

func (s *stubBackend) RefineQuery(ctx context.Context, topic, parentTopic string) (string, error) {
	s.calls++
	if s.summarizeErr != nil {
		return "", s.summarizeErr
	}
	return topic, nil
}

func (s *stubBackend) ListSubTopics(ctx context.Context, topic string) ([]string, error) {
	return nil, s.summarizeErr
}

func (s *stubBackend) GenerateFromText(ctx context.Context, contextText, topic string, count int) ([]models.RawCard, error) {
	return nil, s.summarizeErr
}

func (s *stubBackend) GenerateQuizFromCards(ctx context.Context, cards []models.Flashcard, count int) ([]models.RawQuestion, error) {
	return nil, s.summarizeErr
}

func (s *stubBackend) GenerateQuizFromTopic(ctx context.Context, topic string, count int, contextText string) ([]models.RawQuestion, error) {
	return nil, s.summarizeErr
}

func (s *stubBackend) RepairCards(ctx context.Context, malformed, topic string, count int) ([]models.RawCard, error) {
	return nil, s.summarizeErr
}

var _ interfaces.GenerationBackend = (*stubBackend)(nil)

func TestRegistryResolve(t *testing.T) {
	logger := arbor.NewLogger()
	registry := NewRegistry(models.RuntimeGemini, logger)
	gemini := &stubBackend{runtime: models.RuntimeGemini}
	ollama := &stubBackend{runtime: models.RuntimeOllama}
	registry.Register(gemini)
	registry.Register(ollama)

	backend, err := registry.Resolve(models.RuntimeOllama)
	require.NoError(t, err)
	assert.Equal(t, models.RuntimeOllama, backend.Runtime())

	// Empty runtime resolves to the default
	backend, err = registry.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, models.RuntimeGemini, backend.Runtime())
}

func TestRegistryResolveUnknown(t *testing.T) {
	registry := NewRegistry(models.RuntimeGemini, arbor.NewLogger())
	registry.Register(&stubBackend{runtime: models.RuntimeGemini})

	_, err := registry.Resolve(models.RuntimeClaude)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "claude")
}

func TestRegistryRuntimesSorted(t *testing.T) {
	registry := NewRegistry(models.RuntimeOllama, arbor.NewLogger())
	registry.Register(&stubBackend{runtime: models.RuntimeOllama})
	registry.Register(&stubBackend{runtime: models.RuntimeClaude})
	registry.Register(&stubBackend{runtime: models.RuntimeGemini})

	assert.Equal(t, []models.Runtime{models.RuntimeClaude, models.RuntimeGemini, models.RuntimeOllama}, registry.Runtimes())
}

func TestFallbackBackendPrefersPrimary(t *testing.T) {
	preferred := &stubBackend{runtime: models.RuntimeGemini, summarizeText: "from gemini"}
	direct := &stubBackend{runtime: models.RuntimeOllama, summarizeText: "from ollama"}
	fb := NewFallbackBackend(preferred, direct, arbor.NewLogger())

	text, err := fb.Summarize(context.Background(), "topic")
	require.NoError(t, err)
	assert.Equal(t, "from gemini", text)
	assert.Equal(t, 0, direct.calls)
}

func TestFallbackBackendFallsBackOnce(t *testing.T) {
	preferred := &stubBackend{runtime: models.RuntimeGemini, summarizeErr: errors.New("quota exceeded")}
	direct := &stubBackend{runtime: models.RuntimeOllama, summarizeText: "from ollama"}
	fb := NewFallbackBackend(preferred, direct, arbor.NewLogger())

	text, err := fb.Summarize(context.Background(), "topic")
	require.NoError(t, err)
	assert.Equal(t, "from ollama", text)
	assert.Equal(t, 1, preferred.calls, "preferred path must be tried exactly once")
	assert.Equal(t, 1, direct.calls)
}

func TestFallbackBackendPropagatesDirectError(t *testing.T) {
	preferred := &stubBackend{runtime: models.RuntimeGemini, summarizeErr: errors.New("preferred down")}
	direct := &stubBackend{runtime: models.RuntimeOllama, summarizeErr: errors.New("direct down")}
	fb := NewFallbackBackend(preferred, direct, arbor.NewLogger())

	_, err := fb.Summarize(context.Background(), "topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direct down")
}

func TestFallbackBackendReportsPreferredRuntime(t *testing.T) {
	fb := NewFallbackBackend(
		&stubBackend{runtime: models.RuntimeClaude},
		&stubBackend{runtime: models.RuntimeOllama},
		arbor.NewLogger(),
	)
	assert.Equal(t, models.RuntimeClaude, fb.Runtime())
}
