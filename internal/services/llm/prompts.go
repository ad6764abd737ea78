package llm

import (
	"fmt"
	"strings"

	"github.com/ternarybob/memoro/internal/models"
)

const systemPrompt = "You are a study-content generator. Follow the output format exactly. " +
	"Respond with JSON only when JSON is requested, with no commentary before or after."

func summarizePrompt(topic string) string {
	return fmt.Sprintf(
		"Write a concise factual summary (4-6 sentences) of the topic %q. "+
			"Cover the most important definitions, mechanisms and facts a student should know. "+
			"Plain text only.", topic)
}

func refineQueryPrompt(topic, parentTopic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn the study topic %q into a single effective web search query.", topic)
	if parentTopic != "" {
		fmt.Fprintf(&b, " The topic is a sub-topic of %q; disambiguate accordingly.", parentTopic)
	}
	b.WriteString(" Respond with the query text only, no quotes, no explanation.")
	return b.String()
}

func subTopicsPrompt(topic string) string {
	return fmt.Sprintf(
		"List 3 to 5 advanced sub-topics of %q suitable for a deep-dive study session. "+
			"Respond with a JSON array of strings only, for example: "+
			`["sub-topic one","sub-topic two","sub-topic three"]`, topic)
}

func cardsPrompt(contextText, topic string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly %d study flashcards about %q.\n", count, topic)
	if contextText != "" {
		b.WriteString("Base the cards on the following source material where possible:\n\n")
		b.WriteString(contextText)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a JSON array only. Each element must be an object with ")
	b.WriteString(`"question" and "answer" string fields. `)
	b.WriteString("Questions must be self-contained; answers must be factual and concise.")
	return b.String()
}

func repairCardsPrompt(malformed, topic string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following flashcard data about %q is malformed or incomplete:\n\n", topic)
	b.WriteString(malformed)
	fmt.Fprintf(&b, "\n\nFix it and return exactly %d complete flashcards. ", count)
	b.WriteString("Respond with a JSON array only, each element an object with ")
	b.WriteString(`"question" and "answer" string fields.`)
	return b.String()
}

func quizFromCardsPrompt(cards []models.Flashcard, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly %d multiple-choice quiz questions based on these flashcards:\n\n", count)
	for i, c := range cards {
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, c.Front, c.Back)
	}
	b.WriteString("\nRespond with a JSON array only. Each element must be an object with ")
	b.WriteString(`"question" (string), "options" (array of exactly 4 distinct strings), `)
	b.WriteString(`"correct_answer" (one of the options) and optional "explanation". `)
	b.WriteString("Every question must use a different set of options.")
	return b.String()
}

func quizFromTopicPrompt(topic string, count int, contextText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create exactly %d multiple-choice quiz questions about %q.\n", count, topic)
	if contextText != "" {
		b.WriteString("Use the following source material where possible:\n\n")
		b.WriteString(contextText)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a JSON array only. Each element must be an object with ")
	b.WriteString(`"question" (string), "options" (array of exactly 4 distinct strings), `)
	b.WriteString(`"correct_answer" (one of the options) and optional "explanation". `)
	b.WriteString("Every question must use a different set of options.")
	return b.String()
}
