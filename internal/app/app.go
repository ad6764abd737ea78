package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/handlers"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
	"github.com/ternarybob/memoro/internal/queue"
	"github.com/ternarybob/memoro/internal/scheduler"
	"github.com/ternarybob/memoro/internal/services/generation"
	"github.com/ternarybob/memoro/internal/services/llm"
	"github.com/ternarybob/memoro/internal/services/metrics"
	"github.com/ternarybob/memoro/internal/services/scraper"
	"github.com/ternarybob/memoro/internal/services/search"
	storage "github.com/ternarybob/memoro/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager *storage.Manager

	// Generation pipeline
	Registry          *llm.Registry
	SearchService     interfaces.SearchService
	Fetcher           *scraper.Fetcher
	MetricsSink       interfaces.MetricsSink
	GenerationService interfaces.GenerationService

	// Job processing
	QueueManager *queue.Manager
	WorkerPool   *queue.WorkerPool
	Scheduler    *scheduler.Scheduler

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	GenerationHandler *handlers.GenerationHandler
	QuizHandler       *handlers.QuizHandler
	DeckHandler       *handlers.DeckHandler
	WSHandler         *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := storage.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	if err := app.initBackends(ctx); err != nil {
		storageManager.Close()
		return nil, err
	}

	// Search is optional; a disabled client degrades requests to ai-only
	// context rather than failing them.
	if cfg.Search.Enabled && cfg.Search.APIKey != "" {
		app.SearchService = search.NewClientFromConfig(&cfg.Search, logger)
	} else {
		app.SearchService = search.NewDisabledSearchService(logger)
	}

	fetcherCfg := cfg.EffectiveFetcher()
	app.Fetcher = scraper.NewFetcher(&fetcherCfg, logger)
	app.MetricsSink = metrics.NewSink(storageManager.MetricStorage(), logger)

	app.GenerationService = generation.NewService(
		app.Registry,
		app.SearchService,
		app.Fetcher,
		app.MetricsSink,
		&cfg.Generation,
		logger,
	)

	if err := app.initQueue(); err != nil {
		storageManager.Close()
		return nil, err
	}

	if cfg.Scheduler.Enabled {
		app.Scheduler = scheduler.NewScheduler(
			storageManager.DeadLetterStorage(),
			cfg.Scheduler.GetQuarantineRetention(),
			cfg.Scheduler.SweepSchedule,
			logger,
		)
	}

	app.APIHandler = handlers.NewAPIHandler(app.QueueManager, storageManager.DeadLetterStorage(), storageManager.MetricStorage(), app.Registry, logger)
	app.GenerationHandler = handlers.NewGenerationHandler(storageManager.JobStorage(), app.QueueManager, logger)
	app.QuizHandler = handlers.NewQuizHandler(storageManager.JobStorage(), storageManager.QuizStorage(), app.QueueManager, logger)
	app.DeckHandler = handlers.NewDeckHandler(storageManager.DeckStorage(), logger)

	logger.Info().Msg("Application initialized")

	return app, nil
}

// initBackends registers every configured generation backend. At least
// one must be configured; the default runtime must be among them.
func (a *App) initBackends(ctx context.Context) error {
	cfg := a.Config
	callTimeout := cfg.LLM.GetCallTimeout()

	raw := make(map[models.Runtime]interfaces.GenerationBackend)

	if cfg.Gemini.APIKey != "" {
		backend, err := llm.NewGeminiBackend(ctx, &cfg.Gemini, callTimeout, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize gemini backend: %w", err)
		}
		raw[models.RuntimeGemini] = backend
	}
	if cfg.Claude.APIKey != "" {
		backend, err := llm.NewClaudeBackend(&cfg.Claude, callTimeout, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize claude backend: %w", err)
		}
		raw[models.RuntimeClaude] = backend
	}
	if cfg.Ollama.BaseURL != "" {
		raw[models.RuntimeOllama] = llm.NewOllamaBackend(&cfg.Ollama, callTimeout, a.Logger)
	}

	if len(raw) == 0 {
		return fmt.Errorf("no generation backend configured: set gemini.api_key, claude.api_key or ollama.base_url")
	}

	defaultRuntime := models.Runtime(cfg.LLM.DefaultRuntime)
	if _, ok := raw[defaultRuntime]; !ok {
		return fmt.Errorf("default runtime %q is not configured", defaultRuntime)
	}

	a.Registry = llm.NewRegistry(defaultRuntime, a.Logger)

	// With a fallback runtime configured, every other backend is wrapped
	// so a failed call retries once against the fallback.
	fallback := raw[models.Runtime(cfg.LLM.FallbackRuntime)]
	for runtime, backend := range raw {
		if fallback != nil && runtime != fallback.Runtime() {
			a.Registry.Register(llm.NewFallbackBackend(backend, fallback, a.Logger))
			continue
		}
		a.Registry.Register(backend)
	}

	return nil
}

// initQueue builds the queue manager, event hub and worker pool.
func (a *App) initQueue() error {
	cfg := a.Config

	visibilityTimeout, err := cfg.Queue.GetVisibilityTimeout()
	if err != nil {
		return fmt.Errorf("invalid queue visibility timeout: %w", err)
	}
	pollInterval, err := cfg.Queue.GetPollInterval()
	if err != nil {
		return fmt.Errorf("invalid queue poll interval: %w", err)
	}
	retryBackoff, err := cfg.Queue.GetRetryBackoff()
	if err != nil {
		return fmt.Errorf("invalid queue retry backoff: %w", err)
	}

	queueMgr, err := queue.NewManager(
		a.StorageManager.DB().Store().Badger(),
		cfg.Queue.Name,
		visibilityTimeout,
		cfg.Queue.MaxAttempts,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize queue: %w", err)
	}
	a.QueueManager = queueMgr

	a.WSHandler = handlers.NewWebSocketHandler(a.Logger)

	pool := queue.NewWorkerPool(
		queueMgr,
		a.StorageManager.JobStorage(),
		a.StorageManager.DeadLetterStorage(),
		a.WSHandler,
		queue.WorkerPoolConfig{
			Concurrency:  cfg.Queue.Concurrency,
			PollInterval: pollInterval,
			MaxAttempts:  cfg.Queue.MaxAttempts,
			RetryBackoff: retryBackoff,
		},
		a.Logger,
	)
	pool.RegisterHandler(models.JobTypeGeneration, queue.NewGenerationHandler(a.GenerationService, a.StorageManager.DeckStorage(), a.Logger))
	pool.RegisterHandler(models.JobTypeQuiz, queue.NewQuizHandler(a.GenerationService, a.Logger))
	a.WorkerPool = pool

	return nil
}

// Start launches the background components
func (a *App) Start() error {
	if err := a.WorkerPool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	if a.Scheduler != nil {
		if err := a.Scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}
	return nil
}

// Close shuts down background components and the database
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.WorkerPool != nil {
		a.WorkerPool.Stop()
	}
	if a.StorageManager != nil {
		return a.StorageManager.Close()
	}
	return nil
}
