package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/queue"
)

// APIHandler serves system endpoints: health, version, quarantine and
// metrics inspection.
type APIHandler struct {
	queueMgr   *queue.Manager
	deadLetter interfaces.DeadLetterStorage
	metrics    interfaces.MetricStorage
	resolver   interfaces.BackendResolver
	logger     arbor.ILogger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(queueMgr *queue.Manager, deadLetter interfaces.DeadLetterStorage, metrics interfaces.MetricStorage, resolver interfaces.BackendResolver, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		queueMgr:   queueMgr,
		deadLetter: deadLetter,
		metrics:    metrics,
		resolver:   resolver,
		logger:     logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.Build,
		"git_commit": common.GitCommit,
	})
}

// HealthHandler returns health check status with queue depth and the
// registered generation runtimes
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	resp := map[string]interface{}{
		"status": "ok",
	}

	if h.queueMgr != nil {
		if depth, err := h.queueMgr.PendingCount(r.Context()); err == nil {
			resp["queue_depth"] = depth
		}
	}
	if h.resolver != nil {
		runtimes := h.resolver.Runtimes()
		names := make([]string, len(runtimes))
		for i, rt := range runtimes {
			names[i] = string(rt)
		}
		resp["runtimes"] = names
	}

	WriteJSON(w, http.StatusOK, resp)
}

// DeadLettersHandler handles GET /api/jobs/deadletters
func (h *APIHandler) DeadLettersHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := GetLimitParam(r, 50, 200)
	letters, err := h.deadLetter.ListDeadLetters(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list dead letters")
		WriteError(w, http.StatusInternalServerError, "Failed to list dead letters")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dead_letters": letters,
		"count":        len(letters),
	})
}

// MetricsHandler handles GET /api/metrics
func (h *APIHandler) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := GetLimitParam(r, 100, 500)
	metrics, err := h.metrics.ListMetrics(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list metrics")
		WriteError(w, http.StatusInternalServerError, "Failed to list metrics")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"metrics": metrics,
		"count":   len(metrics),
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
