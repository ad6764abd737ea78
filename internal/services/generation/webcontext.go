package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// buildWebContext runs query refinement, search, domain dedupe and
// concurrent per-site fetching. Every failure here is soft: the worst
// case is an empty context and generation proceeds from the topic alone.
func (s *Service) buildWebContext(ctx context.Context, backend interfaces.GenerationBackend, topic, parentTopic string) string {
	if s.search == nil || !s.search.Enabled() {
		s.logger.Debug().Str("topic", topic).Msg("Web search unavailable, skipping web context")
		return ""
	}

	// Query refinement falls back to the raw topic string.
	query, err := backend.RefineQuery(ctx, topic, parentTopic)
	if err != nil || query == "" {
		s.logger.Warn().
			Str("topic", topic).
			Err(err).
			Msg("Query refinement failed, using raw topic")
		query = topic
	}

	results, err := s.search.Search(ctx, query)
	if err != nil {
		s.logger.Warn().
			Str("query", query).
			Err(err).
			Msg("Web search failed, continuing without web context")
		return ""
	}
	if len(results) == 0 {
		s.logger.Info().Str("query", query).Msg("Web search returned no results")
		return ""
	}

	maxSources := s.config.MaxSources
	if maxSources <= 0 {
		maxSources = 5
	}
	sources := dedupeByDomain(results, maxSources)

	texts := s.fetchSources(ctx, sources)

	var b strings.Builder
	for i, text := range texts {
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "Source: %s (%s)\n%s\n\n", sources[i].Title, common.ExtractDomain(sources[i].Link), text)
	}
	return strings.TrimSpace(b.String())
}

// dedupeByDomain keeps the first result per domain to guarantee source
// diversity, capped at max entries.
func dedupeByDomain(results []models.SearchResult, max int) []models.SearchResult {
	seen := make(map[string]bool)
	var unique []models.SearchResult
	for _, r := range results {
		domain := common.ExtractDomain(r.Link)
		if domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true
		unique = append(unique, r)
		if len(unique) >= max {
			break
		}
	}
	return unique
}

// fetchSources fans the selected sources out concurrently. Each fetch
// carries its own timeout inside the fetcher, so one slow site cannot
// stall the others; failures leave an empty slot.
func (s *Service) fetchSources(ctx context.Context, sources []models.SearchResult) []string {
	texts := make([]string, len(sources))

	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(idx int, url string) {
			defer wg.Done()
			text, err := s.fetcher.FetchText(ctx, url)
			if err != nil {
				s.logger.Warn().
					Str("url", url).
					Err(err).
					Msg("Site fetch failed, skipping source")
				return
			}
			texts[idx] = text
		}(i, source.Link)
	}
	wg.Wait()

	return texts
}
