package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// Registry is a capability-keyed backend registry: runtime identifier ->
// backend. Resolution is a pure lookup with an explicit unknown-backend
// error rather than a silent nil.
type Registry struct {
	backends       map[models.Runtime]interfaces.GenerationBackend
	defaultRuntime models.Runtime
	logger         arbor.ILogger
}

// Compile-time assertion: Registry implements the BackendResolver interface
var _ interfaces.BackendResolver = (*Registry)(nil)

// NewRegistry creates an empty backend registry.
func NewRegistry(defaultRuntime models.Runtime, logger arbor.ILogger) *Registry {
	return &Registry{
		backends:       make(map[models.Runtime]interfaces.GenerationBackend),
		defaultRuntime: defaultRuntime,
		logger:         logger,
	}
}

// Register adds a backend under its runtime identifier.
func (r *Registry) Register(backend interfaces.GenerationBackend) {
	r.backends[backend.Runtime()] = backend
	r.logger.Debug().
		Str("runtime", string(backend.Runtime())).
		Msg("Generation backend registered")
}

// Resolve returns the backend for a runtime identifier. An empty runtime
// resolves to the configured default.
func (r *Registry) Resolve(runtime models.Runtime) (interfaces.GenerationBackend, error) {
	if runtime == "" {
		runtime = r.defaultRuntime
	}
	backend, ok := r.backends[runtime]
	if !ok {
		return nil, fmt.Errorf("unknown generation backend: %q", runtime)
	}
	return backend, nil
}

// Default returns the configured default backend, or nil if none is
// registered.
func (r *Registry) Default() interfaces.GenerationBackend {
	return r.backends[r.defaultRuntime]
}

// Runtimes lists the registered runtime identifiers, sorted for stable
// output.
func (r *Registry) Runtimes() []models.Runtime {
	runtimes := make([]models.Runtime, 0, len(r.backends))
	for rt := range r.backends {
		runtimes = append(runtimes, rt)
	}
	sort.Slice(runtimes, func(i, j int) bool { return runtimes[i] < runtimes[j] })
	return runtimes
}

// FallbackBackend wraps a preferred and a direct backend behind one
// capability surface. Contract: attempt the preferred path once; on any
// error log a warning with the failure reason and retry the identical
// call against the direct path; never retry the preferred path twice;
// when both paths fail, propagate the direct path's error.
type FallbackBackend struct {
	preferred interfaces.GenerationBackend
	direct    interfaces.GenerationBackend
	logger    arbor.ILogger
}

// Compile-time assertion: FallbackBackend implements the GenerationBackend interface
var _ interfaces.GenerationBackend = (*FallbackBackend)(nil)

// NewFallbackBackend wraps preferred and direct backends.
func NewFallbackBackend(preferred, direct interfaces.GenerationBackend, logger arbor.ILogger) *FallbackBackend {
	return &FallbackBackend{
		preferred: preferred,
		direct:    direct,
		logger:    logger,
	}
}

// Runtime reports the preferred backend's identity.
func (f *FallbackBackend) Runtime() models.Runtime {
	return f.preferred.Runtime()
}

func (f *FallbackBackend) warn(capability string, err error) {
	f.logger.Warn().
		Str("preferred", string(f.preferred.Runtime())).
		Str("direct", string(f.direct.Runtime())).
		Str("capability", capability).
		Err(err).
		Msg("Preferred backend failed, falling back to direct backend")
}

// Summarize tries the preferred backend, then the direct one.
func (f *FallbackBackend) Summarize(ctx context.Context, topic string) (string, error) {
	text, err := f.preferred.Summarize(ctx, topic)
	if err == nil {
		return text, nil
	}
	f.warn("summarize", err)
	return f.direct.Summarize(ctx, topic)
}

// RefineQuery tries the preferred backend, then the direct one.
func (f *FallbackBackend) RefineQuery(ctx context.Context, topic, parentTopic string) (string, error) {
	query, err := f.preferred.RefineQuery(ctx, topic, parentTopic)
	if err == nil {
		return query, nil
	}
	f.warn("refine_query", err)
	return f.direct.RefineQuery(ctx, topic, parentTopic)
}

// ListSubTopics tries the preferred backend, then the direct one.
func (f *FallbackBackend) ListSubTopics(ctx context.Context, topic string) ([]string, error) {
	topics, err := f.preferred.ListSubTopics(ctx, topic)
	if err == nil {
		return topics, nil
	}
	f.warn("list_sub_topics", err)
	return f.direct.ListSubTopics(ctx, topic)
}

// GenerateFromText tries the preferred backend, then the direct one.
func (f *FallbackBackend) GenerateFromText(ctx context.Context, contextText, topic string, count int) ([]models.RawCard, error) {
	cards, err := f.preferred.GenerateFromText(ctx, contextText, topic, count)
	if err == nil {
		return cards, nil
	}
	f.warn("generate_from_text", err)
	return f.direct.GenerateFromText(ctx, contextText, topic, count)
}

// RepairCards tries the preferred backend, then the direct one.
func (f *FallbackBackend) RepairCards(ctx context.Context, malformed, topic string, count int) ([]models.RawCard, error) {
	cards, err := f.preferred.RepairCards(ctx, malformed, topic, count)
	if err == nil {
		return cards, nil
	}
	f.warn("repair_cards", err)
	return f.direct.RepairCards(ctx, malformed, topic, count)
}

// GenerateQuizFromCards tries the preferred backend, then the direct one.
func (f *FallbackBackend) GenerateQuizFromCards(ctx context.Context, cards []models.Flashcard, count int) ([]models.RawQuestion, error) {
	questions, err := f.preferred.GenerateQuizFromCards(ctx, cards, count)
	if err == nil {
		return questions, nil
	}
	f.warn("generate_quiz_from_cards", err)
	return f.direct.GenerateQuizFromCards(ctx, cards, count)
}

// GenerateQuizFromTopic tries the preferred backend, then the direct one.
func (f *FallbackBackend) GenerateQuizFromTopic(ctx context.Context, topic string, count int, contextText string) ([]models.RawQuestion, error) {
	questions, err := f.preferred.GenerateQuizFromTopic(ctx, topic, count, contextText)
	if err == nil {
		return questions, nil
	}
	f.warn("generate_quiz_from_topic", err)
	return f.direct.GenerateQuizFromTopic(ctx, topic, count, contextText)
}
