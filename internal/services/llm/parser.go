package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/memoro/internal/models"
)

// Model output is free text; structured data is recovered through a strict
// tier order: fenced code block -> bare JSON -> key/value regex -> line
// heuristic. Each tier is independently testable and no tier guesses
// beyond what it matched.

var (
	fencedBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	qaPairRegex      = regexp.MustCompile(`(?im)^\s*(?:q(?:uestion)?\s*\d*\s*[:.)-]\s*)(.+?)\s*$\n\s*(?:a(?:nswer)?\s*\d*\s*[:.)-]\s*)(.+?)\s*$`)
)

// ExtractCards recovers raw flashcards from model output.
func ExtractCards(text string) ([]models.RawCard, error) {
	if payload, ok := extractFencedJSON(text); ok {
		if cards := decodeCards(payload); len(cards) > 0 {
			return cards, nil
		}
	}
	if payload, ok := extractBareJSON(text); ok {
		if cards := decodeCards(payload); len(cards) > 0 {
			return cards, nil
		}
	}
	if cards := extractKeyValueCards(text); len(cards) > 0 {
		return cards, nil
	}
	if cards := extractLineCards(text); len(cards) > 0 {
		return cards, nil
	}
	return nil, fmt.Errorf("no flashcards found in model output")
}

// ExtractQuestions recovers raw quiz questions from model output.
// Quiz questions carry option arrays, so only the JSON tiers apply.
func ExtractQuestions(text string) ([]models.RawQuestion, error) {
	if payload, ok := extractFencedJSON(text); ok {
		if qs := decodeQuestions(payload); len(qs) > 0 {
			return qs, nil
		}
	}
	if payload, ok := extractBareJSON(text); ok {
		if qs := decodeQuestions(payload); len(qs) > 0 {
			return qs, nil
		}
	}
	return nil, fmt.Errorf("no quiz questions found in model output")
}

// ExtractStringList recovers a list of strings (sub-topics) from model
// output: JSON array first, then one-item-per-line with bullets/numbering
// stripped.
func ExtractStringList(text string) []string {
	payload, ok := extractFencedJSON(text)
	if !ok {
		payload, ok = extractBareJSON(text)
	}
	if ok {
		var items []string
		if err := json.Unmarshal([]byte(payload), &items); err == nil {
			return cleanStrings(items)
		}
	}

	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) \t")
		line = strings.Trim(line, `"`)
		if line != "" {
			items = append(items, line)
		}
	}
	return cleanStrings(items)
}

// extractFencedJSON returns the contents of the first fenced code block.
func extractFencedJSON(text string) (string, bool) {
	matches := fencedBlockRegex.FindStringSubmatch(text)
	if len(matches) < 2 {
		return "", false
	}
	payload := strings.TrimSpace(matches[1])
	if payload == "" {
		return "", false
	}
	return payload, true
}

// extractBareJSON returns the first balanced JSON array or object found in
// the text.
func extractBareJSON(text string) (string, bool) {
	for _, pair := range [][2]byte{{'[', ']'}, {'{', '}'}} {
		start := strings.IndexByte(text, pair[0])
		if start < 0 {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			ch := text[i]
			if escaped {
				escaped = false
				continue
			}
			switch {
			case ch == '\\' && inString:
				escaped = true
			case ch == '"':
				inString = !inString
			case inString:
			case ch == pair[0]:
				depth++
			case ch == pair[1]:
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// extractKeyValueCards parses "Q: ... / A: ..." style output.
func extractKeyValueCards(text string) []models.RawCard {
	var cards []models.RawCard
	for _, m := range qaPairRegex.FindAllStringSubmatch(text, -1) {
		cards = append(cards, models.RawCard{
			Question: strings.TrimSpace(m[1]),
			Answer:   strings.TrimSpace(m[2]),
		})
	}
	return cards
}

// extractLineCards pairs consecutive non-empty lines where the first ends
// in a question mark. Last-resort heuristic.
func extractLineCards(text string) []models.RawCard {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•0123456789.) "))
		if line != "" {
			lines = append(lines, line)
		}
	}

	var cards []models.RawCard
	for i := 0; i+1 < len(lines); i++ {
		if strings.HasSuffix(lines[i], "?") {
			cards = append(cards, models.RawCard{
				Question: lines[i],
				Answer:   lines[i+1],
			})
			i++
		}
	}
	return cards
}

func decodeCards(payload string) []models.RawCard {
	var cards []models.RawCard
	if err := json.Unmarshal([]byte(payload), &cards); err == nil {
		return cards
	}

	// Some models wrap the array in an envelope object
	var envelope struct {
		Cards      []models.RawCard `json:"cards"`
		Flashcards []models.RawCard `json:"flashcards"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err == nil {
		if len(envelope.Cards) > 0 {
			return envelope.Cards
		}
		if len(envelope.Flashcards) > 0 {
			return envelope.Flashcards
		}
	}

	var single models.RawCard
	if err := json.Unmarshal([]byte(payload), &single); err == nil {
		if single.QuestionText() != "" && single.AnswerText() != "" {
			return []models.RawCard{single}
		}
	}
	return nil
}

func decodeQuestions(payload string) []models.RawQuestion {
	var questions []models.RawQuestion
	if err := json.Unmarshal([]byte(payload), &questions); err == nil {
		return questions
	}

	var envelope struct {
		Questions []models.RawQuestion `json:"questions"`
		Quiz      []models.RawQuestion `json:"quiz"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err == nil {
		if len(envelope.Questions) > 0 {
			return envelope.Questions
		}
		if len(envelope.Quiz) > 0 {
			return envelope.Quiz
		}
	}
	return nil
}

func cleanStrings(items []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
