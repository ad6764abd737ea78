package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/memoro/internal/models"
)

func fallbackTestCards() []models.Flashcard {
	return []models.Flashcard{
		{Front: "What declares a variable?", Back: "The var keyword", Topic: "Go"},
		{Front: "What starts a goroutine?", Back: "The go statement", Topic: "Go"},
		{Front: "What formats source files?", Back: "The gofmt tool", Topic: "Go"},
		{Front: "What reports data races?", Back: "The race detector", Topic: "Go"},
		{Front: "What manages dependencies?", Back: "Go modules", Topic: "Go"},
	}
}

func TestBuildQuizFromCards(t *testing.T) {
	questions := BuildQuizFromCards(fallbackTestCards(), "Go", 3)

	require.Len(t, questions, 3)
	for _, q := range questions {
		assert.Len(t, q.Options, 4)
		assert.Contains(t, q.Options, q.CorrectAnswer)
		assert.NotEmpty(t, q.Question)
	}
}

func TestBuildQuizFromCardsBoundedByCards(t *testing.T) {
	cards := fallbackTestCards()[:2]
	questions := BuildQuizFromCards(cards, "Go", 10)
	assert.Len(t, questions, 2)
}

func TestBuildQuizFromCardsDeterministic(t *testing.T) {
	first := BuildQuizFromCards(fallbackTestCards(), "Go", 5)
	second := BuildQuizFromCards(fallbackTestCards(), "Go", 5)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Options, second[i].Options, "same topic seeds the same shuffle")
		assert.Equal(t, first[i].CorrectAnswer, second[i].CorrectAnswer)
	}
}

func TestBuildQuizFromCardsFillsWithNeutralOptions(t *testing.T) {
	cards := []models.Flashcard{
		{Front: "Only question?", Back: "Only answer", Topic: "Go"},
	}

	questions := BuildQuizFromCards(cards, "Go", 1)

	require.Len(t, questions, 1)
	assert.Len(t, questions[0].Options, 4)
	assert.Contains(t, questions[0].Options, "Only answer")
}

func TestBuildQuizFromCardsSmallPoolOptionDiversity(t *testing.T) {
	// With four cards every question would otherwise carry all four answers
	// as its option set.
	cards := []models.Flashcard{
		{Front: "Which organelle produces ATP?", Back: "Mitochondria", Topic: "Cell biology"},
		{Front: "Which organelle builds proteins?", Back: "Ribosome", Topic: "Cell biology"},
		{Front: "Which organelle stores DNA?", Back: "Nucleus", Topic: "Cell biology"},
		{Front: "Which organelle packages proteins?", Back: "Golgi apparatus", Topic: "Cell biology"},
	}

	questions := BuildQuizFromCards(cards, "Cell biology", 4)

	require.Len(t, questions, 4)
	assert.False(t, HasDuplicateOptionSets(questions))
	for _, q := range questions {
		assert.Len(t, q.Options, 4)
		assert.Contains(t, q.Options, q.CorrectAnswer)
	}
}

func TestBuildQuizFromCardsFullPoolOptionDiversity(t *testing.T) {
	questions := BuildQuizFromCards(fallbackTestCards(), "Go", 5)

	require.Len(t, questions, 5)
	assert.False(t, HasDuplicateOptionSets(questions))
}

func TestBuildQuizFromCardsEmptyInputs(t *testing.T) {
	assert.Nil(t, BuildQuizFromCards(nil, "Go", 3))
	assert.Nil(t, BuildQuizFromCards(fallbackTestCards(), "Go", 0))
}

func TestBuildQuizFromTopic(t *testing.T) {
	questions := BuildQuizFromTopic("Plate tectonics", 7)

	require.Len(t, questions, 7)
	for _, q := range questions {
		assert.Equal(t, []string{"True", "False"}, q.Options)
		assert.Equal(t, "True", q.CorrectAnswer)
		assert.Contains(t, q.Question, "Plate tectonics")
	}
}

func TestBuildQuizFromTopicEmptyInputs(t *testing.T) {
	assert.Nil(t, BuildQuizFromTopic("", 3))
	assert.Nil(t, BuildQuizFromTopic("Go", 0))
}
