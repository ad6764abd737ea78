package models

import (
	"time"
)

// JobStatus is the lifecycle state of a queued job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusNotFound is reported when polling an unknown job id.
	// It is never persisted.
	JobStatusNotFound JobStatus = "not_found"
)

// JobType classifies what a worker should do with a job.
type JobType string

const (
	JobTypeGeneration JobType = "generation"
	JobTypeQuiz       JobType = "quiz"
)

// Job is the persisted record of an asynchronous generation task.
// Identity fields (ID, Type, Request) are immutable after enqueue;
// workers mutate only status, progress, result and attempt count.
type Job struct {
	ID           string            `json:"id" badgerhold:"key"`
	Type         JobType           `json:"type"`
	Status       JobStatus         `json:"status" badgerhold:"index"`
	Progress     int               `json:"progress"` // 0-100
	Request      GenerationRequest `json:"request"`
	QuizRequest  *QuizRequest      `json:"quiz_request,omitempty"`
	Result       *GenerationResult `json:"result,omitempty"`
	QuizResult   []QuizQuestion    `json:"quiz_result,omitempty"`
	Error        string            `json:"error,omitempty"`
	AttemptsMade int               `json:"attempts_made"`
	CreatedAt    time.Time         `json:"created_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// MarkActive records an exclusive worker claim.
func (j *Job) MarkActive() {
	j.Status = JobStatusActive
	j.AttemptsMade++
	now := time.Now()
	if j.StartedAt == nil {
		j.StartedAt = &now
	}
	j.UpdatedAt = now
}

// MarkQueued returns the job to the queue after a retryable failure.
// Progress resets so the next attempt reports from zero.
func (j *Job) MarkQueued(reason string) {
	j.Status = JobStatusQueued
	j.Progress = 0
	j.Error = reason
	j.UpdatedAt = time.Now()
}

// MarkCompleted records a successful result.
func (j *Job) MarkCompleted() {
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.Error = ""
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkFailed records terminal failure after the attempt budget is exhausted.
func (j *Job) MarkFailed(reason string) {
	j.Status = JobStatusFailed
	j.Error = reason
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// IsTerminal reports whether the job has finished.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// DeadLetter is the quarantine record mirrored from a job whose retry
// budget was exhausted. Raw jobs are never silently dropped.
type DeadLetter struct {
	ID            string            `json:"id" badgerhold:"key"`
	JobID         string            `json:"job_id" badgerhold:"index"`
	Type          JobType           `json:"type"`
	Request       GenerationRequest `json:"request"`
	QuizRequest   *QuizRequest      `json:"quiz_request,omitempty"`
	Reason        string            `json:"reason"`
	Attempts      int               `json:"attempts"`
	QuarantinedAt time.Time         `json:"quarantined_at"`
}
