package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
)

// DeckHandler serves saved deck history.
type DeckHandler struct {
	decks  interfaces.DeckStorage
	logger arbor.ILogger
}

// NewDeckHandler creates a new DeckHandler
func NewDeckHandler(decks interfaces.DeckStorage, logger arbor.ILogger) *DeckHandler {
	return &DeckHandler{
		decks:  decks,
		logger: logger,
	}
}

// HistoryHandler handles GET /api/decks
func (h *DeckHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := GetLimitParam(r, 20, 100)
	decks, err := h.decks.GetDeckHistory(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load deck history")
		WriteError(w, http.StatusInternalServerError, "Failed to load deck history")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"decks": decks,
		"count": len(decks),
	})
}
