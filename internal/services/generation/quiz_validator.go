package generation

import (
	"strings"

	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/models"
)

// neutralFillers pad non-binary questions that came back with fewer than
// four options.
var neutralFillers = []string{
	"None of the above",
	"All of the above",
	"Not enough information",
	"Cannot be determined",
}

// EnsureQuiz normalizes raw quiz questions and enforces the option rules:
// binary questions carry exactly {"True","False"}; all others exactly 4
// options with the correct answer always a member.
func (v *Validator) EnsureQuiz(raw []models.RawQuestion, topic string, count int) []models.QuizQuestion {
	var questions []models.QuizQuestion

	for _, r := range raw {
		question := strings.TrimSpace(r.Question)
		correct := strings.TrimSpace(r.CorrectText())
		if !v.validText(question) || correct == "" {
			continue
		}

		q := models.QuizQuestion{
			ID:            common.NewQuestionID(),
			Question:      question,
			CorrectAnswer: correct,
			Explanation:   strings.TrimSpace(r.Explanation),
			Difficulty:    strings.TrimSpace(r.Difficulty),
		}

		if isBinaryAnswer(correct, r.Options) {
			q.Options = []string{"True", "False"}
			q.CorrectAnswer = canonicalBool(correct)
		} else {
			q.Options = ensureOptionCount(r.Options, correct)
		}

		questions = append(questions, q)

		if len(questions) == count {
			break
		}
	}

	return questions
}

// ensureOptionCount dedupes options order-preserving, guarantees the
// correct answer is present, pads to 4 with neutral fillers and truncates
// extras without ever dropping the correct answer.
func ensureOptionCount(options []string, correct string) []string {
	seen := make(map[string]bool)
	var cleaned []string

	add := func(opt string) {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return
		}
		key := strings.ToLower(opt)
		if seen[key] {
			return
		}
		seen[key] = true
		cleaned = append(cleaned, opt)
	}

	add(correct)
	for _, opt := range options {
		add(opt)
	}

	for _, filler := range neutralFillers {
		if len(cleaned) >= 4 {
			break
		}
		add(filler)
	}

	if len(cleaned) > 4 {
		// Keep the correct answer (always index 0 after add ordering is
		// not guaranteed to survive truncation of arbitrary slices, so
		// rebuild explicitly)
		kept := []string{}
		correctKey := strings.ToLower(strings.TrimSpace(correct))
		for _, opt := range cleaned {
			if strings.ToLower(opt) == correctKey {
				kept = append(kept, opt)
				break
			}
		}
		for _, opt := range cleaned {
			if len(kept) >= 4 {
				break
			}
			if strings.ToLower(opt) == correctKey {
				continue
			}
			kept = append(kept, opt)
		}
		cleaned = kept
	}

	return cleaned
}

// isBinaryAnswer reports whether an answer/option set describes a
// True/False question.
func isBinaryAnswer(correct string, options []string) bool {
	c := strings.ToLower(strings.TrimSpace(correct))
	if c != "true" && c != "false" {
		return false
	}
	if len(options) == 0 || len(options) == 2 {
		for _, opt := range options {
			o := strings.ToLower(strings.TrimSpace(opt))
			if o != "true" && o != "false" {
				return false
			}
		}
		return true
	}
	return false
}

func canonicalBool(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), "true") {
		return "True"
	}
	return "False"
}

// HasDuplicateOptionSets reports whether two non-binary questions share an
// identical order-independent option set. Binary questions are exempt:
// their option set is {"True","False"} by construction.
func HasDuplicateOptionSets(questions []models.QuizQuestion) bool {
	seen := make(map[string]bool)
	for i := range questions {
		if questions[i].IsBinary() {
			continue
		}
		key := questions[i].OptionSetKey()
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}

// DropDuplicateOptionSets keeps the first question of each duplicated
// option set. Best-effort acceptance after the regeneration budget.
func DropDuplicateOptionSets(questions []models.QuizQuestion) []models.QuizQuestion {
	seen := make(map[string]bool)
	var kept []models.QuizQuestion
	for _, q := range questions {
		if !q.IsBinary() {
			key := q.OptionSetKey()
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		kept = append(kept, q)
	}
	return kept
}
