package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/models"
)

func newTestValidator() *Validator {
	return NewValidator(&common.GenerationConfig{MinAnswerLength: 3}, arbor.NewLogger())
}

func TestEnsureCardsExactCount(t *testing.T) {
	v := newTestValidator()
	raw := []models.RawCard{
		{Question: "What is Go?", Answer: "A programming language"},
		{Question: "What is a slice?", Answer: "A view over an array"},
	}

	cards := v.EnsureCards(context.Background(), nil, raw, "Go", 5)

	require.Len(t, cards, 5)
	assert.Equal(t, models.SourceTypeAI, cards[0].SourceType)
	for _, c := range cards[2:] {
		assert.Equal(t, models.SourceTypeFiller, c.SourceType)
	}
}

func TestEnsureCardsTruncatesOversized(t *testing.T) {
	v := newTestValidator()
	raw := []models.RawCard{
		{Question: "Q one?", Answer: "Answer one"},
		{Question: "Q two?", Answer: "Answer two"},
		{Question: "Q three?", Answer: "Answer three"},
	}

	cards := v.EnsureCards(context.Background(), nil, raw, "Go", 2)
	assert.Len(t, cards, 2)
}

func TestEnsureCardsRejectsCodeLikeText(t *testing.T) {
	v := newTestValidator()
	raw := []models.RawCard{
		{Question: "What is Go?", Answer: "```go\nfunc main() {}\n```"},
		{Question: `{"question": "leaked scaffolding"}`, Answer: "text"},
		{Question: "import strings from the answer", Answer: "import strings\nvar x = 1"},
		{Question: "What is a real card?", Answer: "A valid answer"},
	}

	cards := v.EnsureCards(context.Background(), nil, raw, "Go", 4)

	require.Len(t, cards, 4)
	assert.Equal(t, "What is a real card?", cards[0].Front)
	for _, c := range cards[1:] {
		assert.Equal(t, models.SourceTypeFiller, c.SourceType)
	}
}

func TestEnsureCardsDedupesQuestions(t *testing.T) {
	v := newTestValidator()
	raw := []models.RawCard{
		{Question: "What is Go?", Answer: "A language"},
		{Question: "what is go?", Answer: "Same question, different case"},
	}

	cards := v.EnsureCards(context.Background(), nil, raw, "Go", 2)

	require.Len(t, cards, 2)
	assert.Equal(t, models.SourceTypeFiller, cards[1].SourceType)
}

func TestEnsureCardsNormalizesFieldNames(t *testing.T) {
	v := newTestValidator()
	raw := []models.RawCard{
		{Front: "Front field question?", Back: "Back field answer"},
	}

	cards := v.EnsureCards(context.Background(), nil, raw, "Go", 1)

	require.Len(t, cards, 1)
	assert.Equal(t, "Front field question?", cards[0].Front)
	assert.Equal(t, "Back field answer", cards[0].Back)
}

// repairBackend counts RepairCards invocations and returns a fixed set.
type repairBackend struct {
	stubGenerationBackend
	repairCalls  int
	repairResult []models.RawCard
	repairErr    error
}

func (r *repairBackend) RepairCards(ctx context.Context, malformed, topic string, count int) ([]models.RawCard, error) {
	r.repairCalls++
	return r.repairResult, r.repairErr
}

func TestEnsureCardsSingleRepairPass(t *testing.T) {
	v := newTestValidator()
	backend := &repairBackend{
		repairResult: []models.RawCard{
			{Question: "Repaired question?", Answer: "Repaired answer"},
		},
	}
	raw := []models.RawCard{
		{Question: "Valid question?", Answer: "Valid answer"},
		{Question: "", Answer: "orphan answer"},
	}

	cards := v.EnsureCards(context.Background(), backend, raw, "Go", 3)

	require.Len(t, cards, 3)
	assert.Equal(t, 1, backend.repairCalls)
	assert.Equal(t, "Valid question?", cards[0].Front)
	assert.Equal(t, "Repaired question?", cards[1].Front)
	assert.Equal(t, models.SourceTypeFiller, cards[2].SourceType)
}

func TestEnsureCardsRepairFailurePads(t *testing.T) {
	v := newTestValidator()
	backend := &repairBackend{repairErr: errors.New("backend down")}

	cards := v.EnsureCards(context.Background(), backend, nil, "Go", 2)

	require.Len(t, cards, 2)
	for _, c := range cards {
		assert.Equal(t, models.SourceTypeFiller, c.SourceType)
	}
}

func TestFillerCardLabeled(t *testing.T) {
	card := FillerCard("Quantum computing")
	assert.Equal(t, models.SourceTypeFiller, card.SourceType)
	assert.Contains(t, card.Front, "Quantum computing")
	assert.NotEmpty(t, card.ID)
}
