package generation

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/models"
)

// The local fallback quiz generator is pure and synchronous: no I/O, no
// backend calls. It runs before any network attempt so a quiz is always
// produced even with every backend down.

// BuildQuizFromCards builds one multiple-choice question per card, up to
// count: the card's answer is the correct option and three other cards'
// answers (deterministically shuffled) are distractors. Output size is
// bounded by the number of available flashcards.
func BuildQuizFromCards(cards []models.Flashcard, topic string, count int) []models.QuizQuestion {
	if len(cards) == 0 || count <= 0 {
		return nil
	}
	if count > len(cards) {
		count = len(cards)
	}

	rng := rand.New(rand.NewSource(seedFor(topic)))
	usedSets := make(map[string]bool)

	questions := make([]models.QuizQuestion, 0, count)
	for i := 0; i < count; i++ {
		card := cards[i]
		options := []string{card.Back}

		// Distractors come from the other cards' answers
		for _, j := range rng.Perm(len(cards)) {
			if len(options) >= 4 {
				break
			}
			if j == i || cards[j].Back == card.Back {
				continue
			}
			options = append(options, cards[j].Back)
		}
		for _, filler := range neutralFillers {
			if len(options) >= 4 {
				break
			}
			options = append(options, filler)
		}

		q := models.QuizQuestion{
			ID:            common.NewQuestionID(),
			Question:      fmt.Sprintf("Which of the following best answers: %s", card.Front),
			Options:       options,
			CorrectAnswer: card.Back,
		}
		breakDuplicateOptions(&q, usedSets)
		usedSets[q.OptionSetKey()] = true

		rng.Shuffle(len(q.Options), func(a, b int) {
			q.Options[a], q.Options[b] = q.Options[b], q.Options[a]
		})

		questions = append(questions, q)
	}
	return questions
}

// breakDuplicateOptions swaps distractors for neutral fillers until the
// question's option set differs from every set already used in the quiz.
// Small card pools force repeated distractor sets otherwise: with four
// cards every question would carry all four answers.
func breakDuplicateOptions(q *models.QuizQuestion, used map[string]bool) {
	if !used[q.OptionSetKey()] {
		return
	}
	for pos := range q.Options {
		if strings.EqualFold(strings.TrimSpace(q.Options[pos]), strings.TrimSpace(q.CorrectAnswer)) {
			continue
		}
		for _, filler := range neutralFillers {
			if containsOptionFold(q.Options, filler) {
				continue
			}
			q.Options[pos] = filler
			if !used[q.OptionSetKey()] {
				return
			}
		}
	}
}

func containsOptionFold(options []string, s string) bool {
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

// BuildQuizFromTopic emits generic true-leaning filler questions when only
// a topic is available. Last resort so the quiz contract survives total
// backend failure.
func BuildQuizFromTopic(topic string, count int) []models.QuizQuestion {
	if topic == "" || count <= 0 {
		return nil
	}

	templates := []string{
		"True or False: %s is a recognized area of study.",
		"True or False: understanding %s requires learning its key terminology.",
		"True or False: %s has practical applications worth reviewing.",
		"True or False: revisiting notes on %s improves retention.",
		"True or False: %s can be broken into smaller sub-topics.",
	}

	questions := make([]models.QuizQuestion, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, models.QuizQuestion{
			ID:            common.NewQuestionID(),
			Question:      fmt.Sprintf(templates[i%len(templates)], topic),
			Options:       []string{"True", "False"},
			CorrectAnswer: "True",
		})
	}
	return questions
}

// seedFor derives a stable shuffle seed from the topic so fallback output
// is deterministic for a given input.
func seedFor(topic string) int64 {
	h := fnv.New64a()
	h.Write([]byte(topic))
	return int64(h.Sum64())
}
