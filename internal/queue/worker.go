package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// JobHandler executes one job type. On success it writes the result
// into the job record; on error the worker decides between retry and
// quarantine. report persists and publishes coarse progress (0-100)
// while the handler runs.
type JobHandler func(ctx context.Context, job *models.Job, report interfaces.ProgressFunc) error

// WorkerPoolConfig controls pool sizing and retry behavior.
type WorkerPoolConfig struct {
	Concurrency  int
	PollInterval time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

// WorkerPool polls the queue and drives jobs through their lifecycle:
// claim, execute, then complete, requeue with backoff, or quarantine.
type WorkerPool struct {
	queueMgr   *Manager
	jobs       interfaces.JobStorage
	deadLetter interfaces.DeadLetterStorage
	events     interfaces.JobEventPublisher
	handlers   map[models.JobType]JobHandler
	config     WorkerPoolConfig
	logger     arbor.ILogger
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(
	queueMgr *Manager,
	jobs interfaces.JobStorage,
	deadLetter interfaces.DeadLetterStorage,
	events interfaces.JobEventPublisher,
	config WorkerPoolConfig,
	logger arbor.ILogger,
) *WorkerPool {
	if config.Concurrency <= 0 {
		config.Concurrency = 2
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		queueMgr:   queueMgr,
		jobs:       jobs,
		deadLetter: deadLetter,
		events:     events,
		handlers:   make(map[models.JobType]JobHandler),
		config:     config,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// RegisterHandler registers a job type handler
func (wp *WorkerPool) RegisterHandler(jobType models.JobType, handler JobHandler) {
	wp.handlers[jobType] = handler
	wp.logger.Debug().
		Str("job_type", string(jobType)).
		Msg("Job handler registered")
}

// Start starts the worker pool
func (wp *WorkerPool) Start() error {
	wp.logger.Info().
		Int("concurrency", wp.config.Concurrency).
		Msg("Starting worker pool")

	for i := 0; i < wp.config.Concurrency; i++ {
		go wp.worker(i)
	}

	return nil
}

// Stop gracefully stops the worker pool
func (wp *WorkerPool) Stop() error {
	wp.logger.Info().Msg("Stopping worker pool")
	wp.cancel()
	return nil
}

// worker is the main worker loop that processes messages
func (wp *WorkerPool) worker(workerID int) {
	// Stagger worker starts to reduce database lock contention
	staggerDelay := (wp.config.PollInterval / time.Duration(wp.config.Concurrency)) * time.Duration(workerID)
	if staggerDelay > 0 {
		time.Sleep(staggerDelay)
	}

	wp.logger.Debug().
		Int("worker_id", workerID).
		Dur("stagger_delay", staggerDelay).
		Msg("Worker started")

	ticker := time.NewTicker(wp.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug().
				Int("worker_id", workerID).
				Msg("Worker stopped")
			return

		case <-ticker.C:
			if err := wp.processMessage(workerID); err != nil && err != ErrNoMessage {
				wp.logger.Warn().
					Err(err).
					Int("worker_id", workerID).
					Msg("Error processing message")
			}
		}
	}
}

// processMessage claims and processes a single message
func (wp *WorkerPool) processMessage(workerID int) error {
	delivery, err := wp.queueMgr.Receive(wp.ctx)
	if err != nil {
		return err
	}

	msg := delivery.Message

	job, err := wp.jobs.GetJob(wp.ctx, msg.JobID)
	if err != nil {
		// A message without a job record cannot be retried into anything
		// useful; drop it.
		wp.logger.Error().
			Err(err).
			Str("job_id", msg.JobID).
			Int("worker_id", workerID).
			Msg("Queue message references unknown job")
		return delivery.Ack()
	}

	if job.IsTerminal() {
		// Redelivery of an already finished job (e.g. a crash between
		// completion and ack). Acking again is safe.
		wp.logger.Debug().
			Str("job_id", job.ID).
			Str("status", string(job.Status)).
			Msg("Skipping terminal job redelivery")
		return delivery.Ack()
	}

	if delivery.Poisoned {
		return wp.quarantine(job, "receive count exceeded", delivery)
	}

	handler, exists := wp.handlers[job.Type]
	if !exists {
		wp.logger.Error().
			Str("type", string(job.Type)).
			Str("job_id", job.ID).
			Msg("No handler registered for job type")
		return wp.quarantine(job, fmt.Sprintf("no handler for job type %q", job.Type), delivery)
	}

	job.MarkActive()
	if err := wp.jobs.SaveJob(wp.ctx, job); err != nil {
		wp.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to mark job active")
	}
	wp.publish(job)

	wp.logger.Debug().
		Str("job_id", job.ID).
		Str("type", string(job.Type)).
		Int("attempt", job.AttemptsMade).
		Int("worker_id", workerID).
		Msg("Processing job")

	// Long handlers outlive the visibility timeout; renew the claim
	// periodically so no other worker re-claims the message mid-run.
	heartbeatCtx, stopHeartbeat := context.WithCancel(wp.ctx)
	go wp.heartbeat(heartbeatCtx, delivery, job.ID)

	startTime := time.Now()
	handlerErr := handler(wp.ctx, job, wp.progressReporter(job))
	duration := time.Since(startTime)
	stopHeartbeat()

	if handlerErr != nil {
		return wp.handleFailure(job, handlerErr, duration, workerID, delivery)
	}

	job.MarkCompleted()
	if err := wp.jobs.SaveJob(wp.ctx, job); err != nil {
		wp.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to mark job completed")
	}
	wp.publish(job)

	wp.logger.Info().
		Str("job_id", job.ID).
		Str("type", string(job.Type)).
		Dur("duration", duration).
		Int("worker_id", workerID).
		Msg("Job completed successfully")

	return delivery.Ack()
}

// handleFailure requeues the job with exponential backoff while the
// attempt budget lasts, then fails and quarantines it.
func (wp *WorkerPool) handleFailure(job *models.Job, handlerErr error, duration time.Duration, workerID int, delivery *Delivery) error {
	wp.logger.Error().
		Err(handlerErr).
		Str("job_id", job.ID).
		Str("type", string(job.Type)).
		Int("attempt", job.AttemptsMade).
		Dur("duration", duration).
		Int("worker_id", workerID).
		Msg("Job handler failed")

	if job.AttemptsMade < wp.config.MaxAttempts {
		job.MarkQueued(handlerErr.Error())
		if err := wp.jobs.SaveJob(wp.ctx, job); err != nil {
			wp.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to requeue job")
		}
		wp.publish(job)

		backoff := wp.backoffFor(job.AttemptsMade)
		wp.logger.Info().
			Str("job_id", job.ID).
			Int("attempt", job.AttemptsMade).
			Dur("backoff", backoff).
			Msg("Job requeued for retry")
		return delivery.Nack(backoff)
	}

	return wp.quarantine(job, handlerErr.Error(), delivery)
}

// quarantine fails the job terminally and writes a dead letter so the
// request is preserved for inspection.
func (wp *WorkerPool) quarantine(job *models.Job, reason string, delivery *Delivery) error {
	job.MarkFailed(reason)
	if err := wp.jobs.SaveJob(wp.ctx, job); err != nil {
		wp.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to mark job failed")
	}
	wp.publish(job)

	dl := &models.DeadLetter{
		ID:            common.NewDeadLetterID(),
		JobID:         job.ID,
		Type:          job.Type,
		Request:       job.Request,
		QuizRequest:   job.QuizRequest,
		Reason:        reason,
		Attempts:      job.AttemptsMade,
		QuarantinedAt: time.Now(),
	}
	if err := wp.deadLetter.SaveDeadLetter(wp.ctx, dl); err != nil {
		wp.logger.Error().
			Err(err).
			Str("job_id", job.ID).
			Msg("Failed to save dead letter")
	} else {
		wp.logger.Warn().
			Str("job_id", job.ID).
			Str("reason", reason).
			Int("attempts", job.AttemptsMade).
			Msg("Job quarantined")
	}

	return delivery.Ack()
}

// heartbeat renews the message claim at half the visibility timeout
// until the handler finishes.
func (wp *WorkerPool) heartbeat(ctx context.Context, delivery *Delivery, jobID string) {
	interval := wp.queueMgr.visibilityTimeout / 2
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wp.queueMgr.Extend(ctx, delivery.msgID, wp.queueMgr.visibilityTimeout); err != nil {
				wp.logger.Warn().
					Err(err).
					Str("job_id", jobID).
					Msg("Failed to extend message claim")
			}
		}
	}
}

// progressReporter returns the handler's progress callback. Progress is
// monotonic within an attempt; persistence and publishing are best effort.
func (wp *WorkerPool) progressReporter(job *models.Job) interfaces.ProgressFunc {
	return func(progress int) {
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
		if progress <= job.Progress {
			return
		}
		job.Progress = progress
		if err := wp.jobs.SaveJob(wp.ctx, job); err != nil {
			wp.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist job progress")
		}
		wp.publish(job)
	}
}

// backoffFor doubles the base delay per attempt already made.
func (wp *WorkerPool) backoffFor(attempts int) time.Duration {
	backoff := wp.config.RetryBackoff
	for i := 1; i < attempts; i++ {
		backoff *= 2
	}
	return backoff
}

func (wp *WorkerPool) publish(job *models.Job) {
	if wp.events == nil {
		return
	}
	wp.events.Publish(interfaces.JobEvent{
		JobID:    job.ID,
		Status:   job.Status,
		Progress: job.Progress,
		Attempts: job.AttemptsMade,
		Error:    job.Error,
	})
}
