package models

import (
	"time"
)

// SourceType describes where a flashcard's content originated.
type SourceType string

const (
	SourceTypeAI     SourceType = "ai"
	SourceTypeWeb    SourceType = "web"
	SourceTypeFiller SourceType = "filler" // deterministic padding card
)

// Flashcard is a single question/answer pair. Immutable once produced;
// owned by the deck that contains it.
type Flashcard struct {
	ID         string     `json:"id"`
	Front      string     `json:"front"`
	Back       string     `json:"back"`
	Topic      string     `json:"topic"`
	SourceType SourceType `json:"source_type,omitempty"`
}

// RawCard is the unnormalized card shape a backend may return.
// Field names vary per model output; the validator normalizes
// question/front and answer/back into the canonical Flashcard.
type RawCard struct {
	Question string `json:"question,omitempty"`
	Front    string `json:"front,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Back     string `json:"back,omitempty"`
}

// QuestionText returns the question regardless of which field carried it.
func (r *RawCard) QuestionText() string {
	if r.Question != "" {
		return r.Question
	}
	return r.Front
}

// AnswerText returns the answer regardless of which field carried it.
func (r *RawCard) AnswerText() string {
	if r.Answer != "" {
		return r.Answer
	}
	return r.Back
}

// Deck is an opaque saved collection of flashcards.
type Deck struct {
	ID        string      `json:"id" badgerhold:"key"`
	Topic     string      `json:"topic"`
	Cards     []Flashcard `json:"cards"`
	Mode      string      `json:"mode,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
