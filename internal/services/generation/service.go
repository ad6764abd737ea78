// Package generation implements the retrieval orchestrator: it composes
// web search, concurrent scraping and backend generation into the
// end-to-end flashcard and quiz use cases.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// Service is the retrieval orchestrator.
type Service struct {
	resolver  interfaces.BackendResolver
	search    interfaces.SearchService
	fetcher   interfaces.SiteFetcher
	metrics   interfaces.MetricsSink
	validator *Validator
	config    *common.GenerationConfig
	logger    arbor.ILogger
}

// Compile-time assertion: Service implements the GenerationService interface
var _ interfaces.GenerationService = (*Service)(nil)

// NewService creates the retrieval orchestrator.
func NewService(
	resolver interfaces.BackendResolver,
	searchService interfaces.SearchService,
	fetcher interfaces.SiteFetcher,
	metrics interfaces.MetricsSink,
	config *common.GenerationConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		resolver:  resolver,
		search:    searchService,
		fetcher:   fetcher,
		metrics:   metrics,
		validator: NewValidator(config, logger),
		config:    config,
		logger:    logger,
	}
}

// GenerateFlashcards runs the full pipeline for one request. The returned
// card slice always has exactly req.Count entries; a non-nil error means
// the required generation step failed on every configured backend.
func (s *Service) GenerateFlashcards(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	req.Normalize()
	start := time.Now()

	backend, err := s.resolver.Resolve(req.Runtime)
	if err != nil {
		s.recordMetric(ctx, req, 0, start, err)
		return nil, err
	}

	var result *models.GenerationResult
	if req.Mode == models.ModeDeepDive {
		result, err = s.generateDeepDive(ctx, backend, req)
	} else {
		result, err = s.generateStandard(ctx, backend, req)
	}

	cardCount := 0
	if result != nil {
		cardCount = len(result.Cards)
	}
	s.recordMetric(ctx, req, cardCount, start, err)

	return result, err
}

// generateStandard implements the standard pipeline: optional summary,
// optional web context, generation, validation.
func (s *Service) generateStandard(ctx context.Context, backend interfaces.GenerationBackend, req models.GenerationRequest) (*models.GenerationResult, error) {
	// Step 1: topic summary. Failure is soft; the pipeline continues
	// without a summary.
	summary := ""
	if req.KnowledgeSource != models.KnowledgeWebOnly {
		text, err := backend.Summarize(ctx, req.Topic)
		if err != nil {
			s.logger.Warn().
				Str("topic", req.Topic).
				Err(err).
				Msg("Topic summary failed, continuing without it")
		} else {
			summary = text
		}
	}

	// Steps 2-4: assemble the generation context.
	var contextText string
	if req.KnowledgeSource == models.KnowledgeAIOnly {
		contextText = summary
	} else {
		webContext := s.buildWebContext(ctx, backend, req.Topic, req.ParentTopic)
		contextText = joinContext(summary, webContext)
	}

	// Step 5: generation. This is the required step; its failure is the
	// only one that propagates.
	raw, err := backend.GenerateFromText(ctx, contextText, req.Topic, req.Count)
	if err != nil {
		return nil, fmt.Errorf("card generation failed: %w", err)
	}

	// Step 6: validation, repair, exact-count enforcement.
	cards := s.validator.EnsureCards(ctx, backend, raw, req.Topic, req.Count)
	return &models.GenerationResult{Cards: cards}, nil
}

// generateDeepDive discovers advanced sub-topics, processes only the
// first, and recommends the rest. Falls back to standard mode when
// discovery fails or yields nothing.
func (s *Service) generateDeepDive(ctx context.Context, backend interfaces.GenerationBackend, req models.GenerationRequest) (*models.GenerationResult, error) {
	subTopics, err := backend.ListSubTopics(ctx, req.Topic)
	if err != nil || len(subTopics) == 0 {
		s.logger.Warn().
			Str("topic", req.Topic).
			Err(err).
			Msg("Sub-topic discovery failed, falling back to standard mode")
		return s.generateStandard(ctx, backend, req)
	}

	s.logger.Info().
		Str("topic", req.Topic).
		Int("sub_topics", len(subTopics)).
		Str("processing", subTopics[0]).
		Msg("Deep-dive sub-topics discovered")

	subReq := req
	subReq.Topic = subTopics[0]
	subReq.ParentTopic = req.Topic
	subReq.Mode = models.ModeStandard

	result, err := s.generateStandard(ctx, backend, subReq)
	if err != nil {
		return nil, err
	}

	// The processed sub-topic is never recommended back; remaining
	// sub-topics become follow-up requests for the caller to queue.
	result.RecommendedTopics = subTopics[1:]
	return result, nil
}

// GenerateQuiz produces validated quiz questions. When cards are supplied
// the zero-dependency local generator runs first so a quiz is produced
// even with every backend down; the backend order is preferred runtime
// then the remaining registered runtimes.
func (s *Service) GenerateQuiz(ctx context.Context, req models.QuizRequest) ([]models.QuizQuestion, error) {
	start := time.Now()

	count := req.Count
	if count <= 0 {
		count = s.config.DefaultCardCount
	}
	topic := req.Topic
	if topic == "" && len(req.Cards) > 0 {
		topic = req.Cards[0].Topic
	}

	questions, err := s.generateQuiz(ctx, req, topic, count)
	s.recordQuizMetric(ctx, req, topic, len(questions), start, err)
	return questions, err
}

func (s *Service) generateQuiz(ctx context.Context, req models.QuizRequest, topic string, count int) ([]models.QuizQuestion, error) {
	if len(req.Cards) > 0 {
		if questions := BuildQuizFromCards(req.Cards, topic, count); len(questions) > 0 {
			// Same diversity contract as backend output: no two questions
			// may share an order-independent option set.
			if HasDuplicateOptionSets(questions) {
				questions = DropDuplicateOptionSets(questions)
			}
			s.logger.Debug().
				Str("topic", topic).
				Int("questions", len(questions)).
				Msg("Quiz built from local fallback generator")
			return questions, nil
		}
	}

	var lastErr error
	for _, backend := range s.orderedBackends(req.PreferredRuntime) {
		questions, err := s.quizFromBackend(ctx, backend, req, topic, count)
		if err != nil {
			lastErr = err
			s.logger.Warn().
				Str("runtime", string(backend.Runtime())).
				Err(err).
				Msg("Backend quiz generation failed, trying next runtime")
			continue
		}
		return questions, nil
	}

	// Topic-grounded local filler keeps the quiz contract alive when all
	// backends are down.
	if questions := BuildQuizFromTopic(topic, count); len(questions) > 0 {
		s.logger.Warn().
			Str("topic", topic).
			Msg("All backends failed, serving topic filler quiz")
		return questions, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no generation backend available")
	}
	return nil, lastErr
}

// quizFromBackend runs one backend's quiz generator with the diversity
// repair loop: duplicate option sets trigger full regeneration up to the
// configured retry budget before accepting best-effort output.
func (s *Service) quizFromBackend(ctx context.Context, backend interfaces.GenerationBackend, req models.QuizRequest, topic string, count int) ([]models.QuizQuestion, error) {
	retries := s.config.QuizRetries
	if retries <= 0 {
		retries = 3
	}

	var questions []models.QuizQuestion
	for attempt := 1; attempt <= retries; attempt++ {
		var raw []models.RawQuestion
		var err error
		if len(req.Cards) > 0 {
			raw, err = backend.GenerateQuizFromCards(ctx, req.Cards, count)
		} else {
			raw, err = backend.GenerateQuizFromTopic(ctx, topic, count, "")
		}
		if err != nil {
			return nil, err
		}

		questions = s.validator.EnsureQuiz(raw, topic, count)
		if len(questions) == 0 {
			return nil, fmt.Errorf("%s returned no usable quiz questions", backend.Runtime())
		}
		if !HasDuplicateOptionSets(questions) {
			return questions, nil
		}

		s.logger.Warn().
			Str("runtime", string(backend.Runtime())).
			Int("attempt", attempt).
			Msg("Quiz has duplicate option sets, regenerating")
	}

	// Best effort after the retry budget: keep the first question of each
	// duplicated option set.
	return DropDuplicateOptionSets(questions), nil
}

// orderedBackends returns registered backends with the preferred runtime
// first.
func (s *Service) orderedBackends(preferred models.Runtime) []interfaces.GenerationBackend {
	var backends []interfaces.GenerationBackend

	if preferred != "" {
		if b, err := s.resolver.Resolve(preferred); err == nil {
			backends = append(backends, b)
		} else {
			s.logger.Warn().
				Str("runtime", string(preferred)).
				Err(err).
				Msg("Preferred runtime not registered")
		}
	}

	for _, rt := range s.resolver.Runtimes() {
		if rt == preferred {
			continue
		}
		if b, err := s.resolver.Resolve(rt); err == nil {
			backends = append(backends, b)
		}
	}
	return backends
}

// recordMetric appends a generation metric. Best effort only.
func (s *Service) recordMetric(ctx context.Context, req models.GenerationRequest, cardCount int, start time.Time, genErr error) {
	if s.metrics == nil {
		return
	}
	metric := models.GenerationMetric{
		Runtime:         req.Runtime,
		KnowledgeSource: req.KnowledgeSource,
		Mode:            req.Mode,
		Topic:           req.Topic,
		CardCount:       cardCount,
		Duration:        time.Since(start),
		Success:         genErr == nil,
		Timestamp:       time.Now(),
	}
	if genErr != nil {
		metric.ErrorMessage = genErr.Error()
	}
	s.metrics.Record(ctx, metric)
}

// recordQuizMetric appends a quiz generation metric. Best effort only.
func (s *Service) recordQuizMetric(ctx context.Context, req models.QuizRequest, topic string, questionCount int, start time.Time, genErr error) {
	if s.metrics == nil {
		return
	}
	metric := models.GenerationMetric{
		Runtime:   req.PreferredRuntime,
		Mode:      models.ModeQuiz,
		Topic:     topic,
		CardCount: questionCount,
		Duration:  time.Since(start),
		Success:   genErr == nil,
		Timestamp: time.Now(),
	}
	if genErr != nil {
		metric.ErrorMessage = genErr.Error()
	}
	s.metrics.Record(ctx, metric)
}

func joinContext(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}
