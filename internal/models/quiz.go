package models

import (
	"sort"
	"strings"
	"time"
)

// QuizQuestion is a validated multiple-choice question.
// Invariants: CorrectAnswer is a member of Options; binary questions carry
// exactly {"True","False"}, all others exactly 4 options.
type QuizQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
}

// IsBinary reports whether the question is a True/False question.
func (q *QuizQuestion) IsBinary() bool {
	if len(q.Options) != 2 {
		return false
	}
	set := map[string]bool{}
	for _, o := range q.Options {
		set[strings.ToLower(strings.TrimSpace(o))] = true
	}
	return set["true"] && set["false"]
}

// OptionSetKey returns an order-independent fingerprint of the option set,
// used by the diversity invariant (no two questions in one quiz may share
// an identical option set).
func (q *QuizQuestion) OptionSetKey() string {
	opts := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, strings.ToLower(strings.TrimSpace(o)))
	}
	sort.Strings(opts)
	return strings.Join(opts, "\x1f")
}

// RawQuestion is the unnormalized question shape a backend may return.
type RawQuestion struct {
	Question      string   `json:"question,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Answer        string   `json:"answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
}

// CorrectText returns the correct answer regardless of which field carried it.
func (r *RawQuestion) CorrectText() string {
	if r.CorrectAnswer != "" {
		return r.CorrectAnswer
	}
	return r.Answer
}

// QuizResult is an opaque saved quiz attempt.
type QuizResult struct {
	ID        string         `json:"id" badgerhold:"key"`
	Topic     string         `json:"topic"`
	Questions []QuizQuestion `json:"questions"`
	Score     int            `json:"score"`
	Total     int            `json:"total"`
	CreatedAt time.Time      `json:"created_at"`
}
