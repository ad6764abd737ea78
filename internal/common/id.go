package common

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// NewJobID generates a unique job ID with the "job_" prefix
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewDeckID generates a unique deck ID with the "deck_" prefix
func NewDeckID() string {
	return "deck_" + uuid.New().String()
}

// NewCardID generates a unique flashcard ID
func NewCardID() string {
	return "card_" + uuid.New().String()
}

// NewQuestionID generates a unique quiz question ID
func NewQuestionID() string {
	return "q_" + uuid.New().String()
}

// NewQuizResultID generates a unique quiz result ID
func NewQuizResultID() string {
	return "quiz_" + uuid.New().String()
}

// NewMetricID generates a unique generation metric ID
func NewMetricID() string {
	return "metric_" + uuid.New().String()
}

// NewDeadLetterID generates a unique dead letter ID
func NewDeadLetterID() string {
	return "dl_" + uuid.New().String()
}

// ExtractDomain returns the registrable host of a URL, lowercased and
// stripped of a leading "www.". Returns empty string for unparseable URLs.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	return host
}
