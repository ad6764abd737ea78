package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// codeLikePatterns flag leaked code fences, import statements and JSON
// scaffolding that sometimes escape the model into card text.
var codeLikePatterns = []*regexp.Regexp{
	regexp.MustCompile("```"),
	regexp.MustCompile(`(?m)^\s*(import|from|package|func|def|class|var|const)\s+\w`),
	regexp.MustCompile(`^\s*[\[{]\s*"`),
	regexp.MustCompile(`"(question|answer|front|back|options)"\s*:`),
	regexp.MustCompile(`</?\w+[^>]*>`),
}

// Validator enforces structural correctness of generated output and
// repairs or pads it so the caller's count contract is never violated.
type Validator struct {
	minLength int
	logger    arbor.ILogger
}

// NewValidator creates a validator with config-driven thresholds.
func NewValidator(config *common.GenerationConfig, logger arbor.ILogger) *Validator {
	minLength := config.MinAnswerLength
	if minLength <= 0 {
		minLength = 3
	}
	return &Validator{
		minLength: minLength,
		logger:    logger,
	}
}

// EnsureCards normalizes, filters, repairs (one backend call at most) and
// pads raw cards so the result has exactly count entries.
func (v *Validator) EnsureCards(ctx context.Context, backend interfaces.GenerationBackend, raw []models.RawCard, topic string, count int) []models.Flashcard {
	cards := v.filterCards(raw, topic)

	if len(cards) < count && backend != nil {
		cards = v.repairCards(ctx, backend, raw, cards, topic, count)
	}

	if len(cards) > count {
		cards = cards[:count]
	}

	for len(cards) < count {
		cards = append(cards, FillerCard(topic))
	}
	return cards
}

// filterCards normalizes heterogeneous field names into the canonical
// shape and rejects structurally invalid cards.
func (v *Validator) filterCards(raw []models.RawCard, topic string) []models.Flashcard {
	var cards []models.Flashcard
	seen := make(map[string]bool)

	for _, r := range raw {
		question := strings.TrimSpace(r.QuestionText())
		answer := strings.TrimSpace(r.AnswerText())

		if !v.validText(question) || !v.validText(answer) {
			continue
		}

		// Duplicate questions add no study value
		key := strings.ToLower(question)
		if seen[key] {
			continue
		}
		seen[key] = true

		cards = append(cards, models.Flashcard{
			ID:         common.NewCardID(),
			Front:      question,
			Back:       answer,
			Topic:      topic,
			SourceType: models.SourceTypeAI,
		})
	}
	return cards
}

// repairCards issues the single repair pass: the malformed raw payload is
// sent back to the backend to fix, then re-normalized and re-filtered.
func (v *Validator) repairCards(ctx context.Context, backend interfaces.GenerationBackend, raw []models.RawCard, valid []models.Flashcard, topic string, count int) []models.Flashcard {
	payload, err := json.Marshal(raw)
	if err != nil {
		return valid
	}

	v.logger.Info().
		Str("topic", topic).
		Int("valid", len(valid)).
		Int("requested", count).
		Msg("Undersized card output, attempting repair pass")

	repaired, err := backend.RepairCards(ctx, string(payload), topic, count)
	if err != nil {
		v.logger.Warn().
			Str("topic", topic).
			Err(err).
			Msg("Repair pass failed, padding will apply")
		return valid
	}

	seen := make(map[string]bool, len(valid))
	for _, c := range valid {
		seen[strings.ToLower(c.Front)] = true
	}
	for _, c := range v.filterCards(repaired, topic) {
		if seen[strings.ToLower(c.Front)] {
			continue
		}
		seen[strings.ToLower(c.Front)] = true
		valid = append(valid, c)
	}
	return valid
}

// validText rejects empty, too-short, or code/markup-looking text.
func (v *Validator) validText(text string) bool {
	if len([]rune(text)) < v.minLength {
		return false
	}
	for _, pattern := range codeLikePatterns {
		if pattern.MatchString(text) {
			return false
		}
	}
	return true
}

// FillerCard is the deterministic, clearly-labeled padding card used when
// generation cannot satisfy the requested count.
func FillerCard(topic string) models.Flashcard {
	return models.Flashcard{
		ID:         common.NewCardID(),
		Front:      fmt.Sprintf("What is a key fact about %s?", topic),
		Back:       fmt.Sprintf("Placeholder card: revisit %s in your study materials and record one key fact here.", topic),
		Topic:      topic,
		SourceType: models.SourceTypeFiller,
	}
}
