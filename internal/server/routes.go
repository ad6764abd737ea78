package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - job status events
	mux.HandleFunc("/ws/jobs", s.app.WSHandler.HandleWebSocket)

	// API routes - Generation
	mux.HandleFunc("/api/generate", s.app.GenerationHandler.SubmitHandler) // POST - submit generation job
	mux.HandleFunc("/api/jobs", s.app.GenerationHandler.ListJobsHandler)   // GET - list jobs
	mux.HandleFunc("/api/jobs/", s.handleJobRoutes)                        // GET /{id}, GET deadletters

	// API routes - Quiz
	mux.HandleFunc("/api/quiz", s.app.QuizHandler.SubmitHandler)             // POST - submit quiz job
	mux.HandleFunc("/api/quiz/results", s.app.QuizHandler.SaveResultHandler) // POST - record attempt
	mux.HandleFunc("/api/quizzes", s.app.QuizHandler.HistoryHandler)         // GET - quiz history

	// API routes - Decks
	mux.HandleFunc("/api/decks", s.app.DeckHandler.HistoryHandler) // GET - deck history

	// API routes - System
	mux.HandleFunc("/api/metrics", s.app.APIHandler.MetricsHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// Catch-all for unknown API paths
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleJobRoutes dispatches /api/jobs/ subpaths
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")

	if path == "deadletters" {
		s.app.APIHandler.DeadLettersHandler(w, r)
		return
	}

	s.app.GenerationHandler.GetJobHandler(w, r)
}
