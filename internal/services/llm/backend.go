package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// completer turns a prompt into text against one concrete provider.
// gemini.go, claude.go and ollama.go each supply one.
type completer interface {
	runtime() models.Runtime
	complete(ctx context.Context, system, prompt string) (string, error)
}

// Backend implements the capability surface over a completer: each
// capability builds a prompt, runs it with the overall call timeout, and
// parses the response.
type Backend struct {
	c           completer
	callTimeout time.Duration
	logger      arbor.ILogger
}

// Compile-time assertion: Backend implements the GenerationBackend interface
var _ interfaces.GenerationBackend = (*Backend)(nil)

// NewBackend wraps a completer with prompt construction and parsing.
func NewBackend(c completer, callTimeout time.Duration, logger arbor.ILogger) *Backend {
	if callTimeout <= 0 {
		callTimeout = 90 * time.Second
	}
	return &Backend{
		c:           c,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Runtime returns the backend identifier.
func (b *Backend) Runtime() models.Runtime {
	return b.c.runtime()
}

func (b *Backend) run(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	text, err := b.c.complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty response from %s backend", b.c.runtime())
	}
	return text, nil
}

// Summarize returns a short topic summary.
func (b *Backend) Summarize(ctx context.Context, topic string) (string, error) {
	return b.run(ctx, summarizePrompt(topic))
}

// RefineQuery turns a topic into a web search query.
func (b *Backend) RefineQuery(ctx context.Context, topic, parentTopic string) (string, error) {
	text, err := b.run(ctx, refineQueryPrompt(topic, parentTopic))
	if err != nil {
		return "", err
	}

	// The query is the first non-empty line, unquoted
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(strings.TrimSpace(line), `"'`)
		if line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("empty refined query from %s backend", b.c.runtime())
}

// ListSubTopics returns 3-5 advanced sub-topics for deep-dive mode.
func (b *Backend) ListSubTopics(ctx context.Context, topic string) ([]string, error) {
	text, err := b.run(ctx, subTopicsPrompt(topic))
	if err != nil {
		return nil, err
	}

	topics := ExtractStringList(text)
	if len(topics) == 0 {
		return nil, fmt.Errorf("no sub-topics in %s response", b.c.runtime())
	}
	if len(topics) > 5 {
		topics = topics[:5]
	}
	return topics, nil
}

// GenerateFromText produces raw flashcards from a combined context.
func (b *Backend) GenerateFromText(ctx context.Context, contextText, topic string, count int) ([]models.RawCard, error) {
	text, err := b.run(ctx, cardsPrompt(contextText, topic, count))
	if err != nil {
		return nil, err
	}

	cards, err := ExtractCards(text)
	if err != nil {
		return nil, fmt.Errorf("%s card generation: %w", b.c.runtime(), err)
	}
	return cards, nil
}

// RepairCards asks the backend to fix malformed card output.
func (b *Backend) RepairCards(ctx context.Context, malformed, topic string, count int) ([]models.RawCard, error) {
	text, err := b.run(ctx, repairCardsPrompt(malformed, topic, count))
	if err != nil {
		return nil, err
	}

	cards, err := ExtractCards(text)
	if err != nil {
		return nil, fmt.Errorf("%s card repair: %w", b.c.runtime(), err)
	}
	return cards, nil
}

// GenerateQuizFromCards produces raw quiz questions grounded on cards.
func (b *Backend) GenerateQuizFromCards(ctx context.Context, cards []models.Flashcard, count int) ([]models.RawQuestion, error) {
	text, err := b.run(ctx, quizFromCardsPrompt(cards, count))
	if err != nil {
		return nil, err
	}

	questions, err := ExtractQuestions(text)
	if err != nil {
		return nil, fmt.Errorf("%s quiz generation: %w", b.c.runtime(), err)
	}
	return questions, nil
}

// GenerateQuizFromTopic produces raw quiz questions grounded on a topic.
func (b *Backend) GenerateQuizFromTopic(ctx context.Context, topic string, count int, contextText string) ([]models.RawQuestion, error) {
	text, err := b.run(ctx, quizFromTopicPrompt(topic, count, contextText))
	if err != nil {
		return nil, err
	}

	questions, err := ExtractQuestions(text)
	if err != nil {
		return nil, fmt.Errorf("%s quiz generation: %w", b.c.runtime(), err)
	}
	return questions, nil
}
