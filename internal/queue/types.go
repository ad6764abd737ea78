package queue

import (
	"errors"

	"github.com/ternarybob/memoro/internal/models"
)

// ErrNoMessage is returned when the queue has no visible messages.
var ErrNoMessage = errors.New("no message")

// Message is the queue payload. It carries only the job identity; the
// full request lives in the job record so a replayed message can never
// diverge from the persisted job.
type Message struct {
	JobID   string         `json:"job_id"`
	JobType models.JobType `json:"job_type"`
}
