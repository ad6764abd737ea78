package models

import (
	"time"
)

// GenerationMetric is an append-only observability record. Write-once;
// no updates or deletes.
type GenerationMetric struct {
	ID              string          `json:"id" badgerhold:"key"`
	Runtime         Runtime         `json:"runtime"`
	KnowledgeSource KnowledgeSource `json:"knowledge_source"`
	Mode            GenerationMode  `json:"mode"`
	Topic           string          `json:"topic"`
	CardCount       int             `json:"card_count"`
	Duration        time.Duration   `json:"duration"`
	Success         bool            `json:"success"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}
