package search

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// ErrSearchDisabled is returned when web search is unavailable
var ErrSearchDisabled = fmt.Errorf("web search is disabled in configuration")

// DisabledSearchService is a no-op implementation used when web search is
// turned off. ai-only deployments route through it so no network search is
// ever attempted.
type DisabledSearchService struct {
	logger arbor.ILogger
}

// NewDisabledSearchService creates a no-op search service.
func NewDisabledSearchService(logger arbor.ILogger) interfaces.SearchService {
	return &DisabledSearchService{
		logger: logger,
	}
}

// Search returns ErrSearchDisabled
func (s *DisabledSearchService) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	s.logger.Warn().
		Str("query", query).
		Msg("Search attempted but web search is disabled")
	return nil, ErrSearchDisabled
}

// Enabled always reports false
func (s *DisabledSearchService) Enabled() bool {
	return false
}
