package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
	"github.com/ternarybob/memoro/internal/queue"
	"github.com/ternarybob/memoro/internal/services/generation"
)

// QuizHandler accepts quiz generation requests and records attempts.
type QuizHandler struct {
	jobs     interfaces.JobStorage
	quizzes  interfaces.QuizStorage
	queueMgr *queue.Manager
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewQuizHandler creates a new QuizHandler
func NewQuizHandler(jobs interfaces.JobStorage, quizzes interfaces.QuizStorage, queueMgr *queue.Manager, logger arbor.ILogger) *QuizHandler {
	return &QuizHandler{
		jobs:     jobs,
		quizzes:  quizzes,
		queueMgr: queueMgr,
		validate: validator.New(),
		logger:   logger,
	}
}

// SubmitHandler handles POST /api/quiz
func (h *QuizHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if req.Topic == "" && len(req.Cards) == 0 {
		WriteError(w, http.StatusBadRequest, "Either topic or cards is required")
		return
	}

	// Card-based quizzes need no backend; answer synchronously instead of
	// queueing a job.
	if len(req.Cards) > 0 {
		topic := req.Topic
		if topic == "" {
			topic = req.Cards[0].Topic
		}
		questions := generation.BuildQuizFromCards(req.Cards, topic, req.Count)
		if generation.HasDuplicateOptionSets(questions) {
			questions = generation.DropDuplicateOptionSets(questions)
		}
		if len(questions) > 0 {
			h.logger.Info().
				Str("topic", topic).
				Int("questions", len(questions)).
				Msg("Quiz served from local generator")
			WriteJSON(w, http.StatusOK, map[string]interface{}{
				"questions": questions,
				"count":     len(questions),
			})
			return
		}
	}

	now := time.Now()
	job := &models.Job{
		ID:          common.NewJobID(),
		Type:        models.JobTypeQuiz,
		Status:      models.JobStatusQueued,
		QuizRequest: &req,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.jobs.SaveJob(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Msg("Failed to persist quiz job")
		WriteError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	msg := queue.Message{JobID: job.ID, JobType: job.Type}
	if err := h.queueMgr.Enqueue(r.Context(), msg); err != nil {
		h.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to enqueue quiz job")
		WriteError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	h.logger.Info().
		Str("job_id", job.ID).
		Str("topic", req.Topic).
		Int("cards", len(req.Cards)).
		Int("count", req.Count).
		Msg("Quiz job submitted")

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

// SaveResultHandler handles POST /api/quiz/results
func (h *QuizHandler) SaveResultHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var result models.QuizResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if result.ID == "" {
		result.ID = common.NewQuizResultID()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}

	if err := h.quizzes.SaveQuizResult(r.Context(), &result); err != nil {
		h.logger.Error().Err(err).Msg("Failed to save quiz result")
		WriteError(w, http.StatusInternalServerError, "Failed to save quiz result")
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"id":     result.ID,
		"status": "saved",
	})
}

// HistoryHandler handles GET /api/quizzes
func (h *QuizHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := GetLimitParam(r, 20, 100)
	results, err := h.quizzes.GetQuizHistory(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load quiz history")
		WriteError(w, http.StatusInternalServerError, "Failed to load quiz history")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"quizzes": results,
		"count":   len(results),
	})
}
