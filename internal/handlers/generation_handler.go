package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
	"github.com/ternarybob/memoro/internal/queue"
	storage "github.com/ternarybob/memoro/internal/storage/badger"
)

// GenerationHandler accepts generation requests and exposes job polling.
// Submission is fire-and-forget: the job record is persisted first, then
// the queue message, so a crash between the two leaves an inspectable
// queued job rather than an orphan message.
type GenerationHandler struct {
	jobs     interfaces.JobStorage
	queueMgr *queue.Manager
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(jobs interfaces.JobStorage, queueMgr *queue.Manager, logger arbor.ILogger) *GenerationHandler {
	return &GenerationHandler{
		jobs:     jobs,
		queueMgr: queueMgr,
		validate: validator.New(),
		logger:   logger,
	}
}

// SubmitHandler handles POST /api/generate
func (h *GenerationHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Normalize()
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	now := time.Now()
	job := &models.Job{
		ID:        common.NewJobID(),
		Type:      models.JobTypeGeneration,
		Status:    models.JobStatusQueued,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.jobs.SaveJob(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Msg("Failed to persist generation job")
		WriteError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	msg := queue.Message{JobID: job.ID, JobType: job.Type}
	if err := h.queueMgr.Enqueue(r.Context(), msg); err != nil {
		h.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to enqueue generation job")
		WriteError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	h.logger.Info().
		Str("job_id", job.ID).
		Str("topic", req.Topic).
		Str("mode", string(req.Mode)).
		Int("count", req.Count).
		Msg("Generation job submitted")

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

// GetJobHandler handles GET /api/jobs/{id}
func (h *GenerationHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			WriteJSON(w, http.StatusNotFound, map[string]string{
				"job_id": jobID,
				"status": string(models.JobStatusNotFound),
			})
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job")
		WriteError(w, http.StatusInternalServerError, "Failed to load job")
		return
	}

	WriteJSON(w, http.StatusOK, jobResponse(job))
}

// ListJobsHandler handles GET /api/jobs with an optional status filter
func (h *GenerationHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := models.JobStatus(r.URL.Query().Get("status"))
	limit := GetLimitParam(r, 50, 200)

	jobs, err := h.jobs.ListJobs(r.Context(), status, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list jobs")
		WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	out := make([]map[string]interface{}, len(jobs))
	for i, job := range jobs {
		out[i] = jobResponse(job)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  out,
		"count": len(out),
	})
}

// jobResponse shapes a job for API output. Results are included only in
// terminal states.
func jobResponse(job *models.Job) map[string]interface{} {
	resp := map[string]interface{}{
		"job_id":        job.ID,
		"type":          job.Type,
		"status":        job.Status,
		"progress":      job.Progress,
		"attempts_made": job.AttemptsMade,
		"created_at":    job.CreatedAt,
		"updated_at":    job.UpdatedAt,
	}
	if job.StartedAt != nil {
		resp["started_at"] = job.StartedAt
	}
	if job.CompletedAt != nil {
		resp["completed_at"] = job.CompletedAt
	}
	if job.Status == models.JobStatusCompleted {
		if job.Result != nil {
			resp["result"] = job.Result
		}
		if len(job.QuizResult) > 0 {
			resp["quiz"] = job.QuizResult
		}
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	return resp
}

// validationMessage flattens a validator error into a readable message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return "Invalid fields: " + strings.Join(fields, ", ")
	}
	return "Invalid request"
}
