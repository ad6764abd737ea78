package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// DeckStorage implements the DeckStorage interface for Badger.
// Decks are opaque pass-through records; no inspection or mutation.
type DeckStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDeckStorage creates a new DeckStorage instance
func NewDeckStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DeckStorage {
	return &DeckStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DeckStorage) SaveDeck(ctx context.Context, deck *models.Deck) error {
	if deck == nil {
		return fmt.Errorf("deck is required")
	}
	if deck.ID == "" {
		return fmt.Errorf("deck ID is required")
	}

	if err := s.db.Store().Upsert(deck.ID, deck); err != nil {
		return fmt.Errorf("failed to save deck: %w", err)
	}
	return nil
}

func (s *DeckStorage) GetDeckHistory(ctx context.Context, limit int) ([]*models.Deck, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var decks []models.Deck
	if err := s.db.Store().Find(&decks, query); err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}

	result := make([]*models.Deck, len(decks))
	for i := range decks {
		result[i] = &decks[i]
	}
	return result, nil
}
