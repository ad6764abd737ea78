package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCardsFencedJSON(t *testing.T) {
	text := "Here are your flashcards:\n```json\n[{\"question\": \"What is Go?\", \"answer\": \"A programming language\"}]\n```\nEnjoy!"

	cards, err := ExtractCards(text)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "What is Go?", cards[0].QuestionText())
	assert.Equal(t, "A programming language", cards[0].AnswerText())
}

func TestExtractCardsBareJSON(t *testing.T) {
	text := `Sure! [{"front": "What is a goroutine?", "back": "A lightweight thread"}] hope this helps`

	cards, err := ExtractCards(text)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "What is a goroutine?", cards[0].QuestionText())
	assert.Equal(t, "A lightweight thread", cards[0].AnswerText())
}

func TestExtractCardsEnvelopeObject(t *testing.T) {
	text := `{"cards": [{"question": "Q1?", "answer": "A1"}, {"question": "Q2?", "answer": "A2"}]}`

	cards, err := ExtractCards(text)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestExtractCardsKeyValueFallback(t *testing.T) {
	text := "Q: What is a channel?\nA: A typed conduit between goroutines\nQ: What is a mutex?\nA: A mutual exclusion lock"

	cards, err := ExtractCards(text)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "What is a channel?", cards[0].QuestionText())
	assert.Equal(t, "A mutual exclusion lock", cards[1].AnswerText())
}

func TestExtractCardsLineHeuristic(t *testing.T) {
	text := "What is the capital of France?\nParis\nWhat is the capital of Spain?\nMadrid"

	cards, err := ExtractCards(text)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Paris", cards[0].AnswerText())
	assert.Equal(t, "Madrid", cards[1].AnswerText())
}

func TestExtractCardsNothingUsable(t *testing.T) {
	_, err := ExtractCards("I could not generate any flashcards for this topic.")
	assert.Error(t, err)
}

func TestExtractCardsJSONWithNestedBraces(t *testing.T) {
	// A string value containing brackets must not break the balanced scanner
	text := `[{"question": "What does [1, 2] mean?", "answer": "A slice literal {with} braces"}]`

	cards, err := ExtractCards(text)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "What does [1, 2] mean?", cards[0].QuestionText())
}

func TestExtractQuestionsFencedJSON(t *testing.T) {
	text := "```json\n[{\"question\": \"Is Go compiled?\", \"options\": [\"True\", \"False\"], \"correct_answer\": \"True\"}]\n```"

	questions, err := ExtractQuestions(text)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "True", questions[0].CorrectText())
}

func TestExtractQuestionsEnvelope(t *testing.T) {
	text := `{"questions": [{"question": "Pick one", "options": ["a", "b", "c", "d"], "answer": "b"}]}`

	questions, err := ExtractQuestions(text)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "b", questions[0].CorrectText())
}

func TestExtractQuestionsNoLineHeuristic(t *testing.T) {
	// Free text never parses into questions; options cannot be guessed
	_, err := ExtractQuestions("Is Go compiled?\nYes it is")
	assert.Error(t, err)
}

func TestExtractStringListJSON(t *testing.T) {
	items := ExtractStringList(`["Concurrency patterns", "Memory model", "Escape analysis"]`)
	assert.Equal(t, []string{"Concurrency patterns", "Memory model", "Escape analysis"}, items)
}

func TestExtractStringListLines(t *testing.T) {
	items := ExtractStringList("1. Concurrency patterns\n2. Memory model\n- Escape analysis\n")
	assert.Equal(t, []string{"Concurrency patterns", "Memory model", "Escape analysis"}, items)
}

func TestExtractStringListDedupes(t *testing.T) {
	items := ExtractStringList("topic one\nTopic One\ntopic two")
	assert.Len(t, items, 2)
}
