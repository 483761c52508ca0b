package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/OPTCG-Meta/internal/api/response"
	"github.com/ramonehamilton/OPTCG-Meta/internal/metagame"
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// DeckStore reads decks.
type DeckStore interface {
	ListDecks(ctx context.Context, limit, offset int) ([]*models.Deck, error)
	GetDeck(ctx context.Context, id int64) (*models.Deck, error)
	DecksByLeader(ctx context.Context, leaderID string) ([]*models.Deck, error)
	MostPlayedDecks(ctx context.Context, limit int) ([]*models.Deck, error)
	MostSuccessfulDecks(ctx context.Context, minGames, limit int) ([]*models.Deck, error)
}

// DeckView computes priced deck views.
type DeckView interface {
	DeckWithCost(ctx context.Context, deckID int64) (*metagame.DeckWithCost, error)
	DeckDetailed(ctx context.Context, deckID int64) (*metagame.DeckDetailed, error)
}

// DeckHandler handles deck-related API requests.
type DeckHandler struct {
	store DeckStore
	views DeckView
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(store DeckStore, views DeckView) *DeckHandler {
	return &DeckHandler{store: store, views: views}
}

// GetDecks returns a page of decks, most played first.
func (h *DeckHandler) GetDecks(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 100, 1, 500)
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	offset, err := intQuery(r, "offset", 0, 0, math.MaxInt)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	decks, err := h.store.ListDecks(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, decks)
}

// GetMostPlayed returns the decks with the most games.
func (h *DeckHandler) GetMostPlayed(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 20, 1, 100)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	decks, err := h.store.MostPlayedDecks(r.Context(), limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, decks)
}

// GetMostSuccessful returns the best performing decks with enough games.
func (h *DeckHandler) GetMostSuccessful(w http.ResponseWriter, r *http.Request) {
	minGames, err := intQuery(r, "min_games", 50, 1, math.MaxInt)
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	limit, err := intQuery(r, "limit", 20, 1, 100)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	decks, err := h.store.MostSuccessfulDecks(r.Context(), minGames, limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, decks)
}

// GetDecksByLeader returns all decks of a leader.
func (h *DeckHandler) GetDecksByLeader(w http.ResponseWriter, r *http.Request) {
	leaderID := chi.URLParam(r, "leaderID")
	if leaderID == "" {
		response.BadRequest(w, errors.New("leader ID is required"))
		return
	}

	decks, err := h.store.DecksByLeader(r.Context(), leaderID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, decks)
}

// GetDeck returns a single deck by ID.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deckID, err := deckIDParam(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	deck, err := h.store.GetDeck(r.Context(), deckID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if deck == nil {
		response.NotFound(w, errors.New("deck not found"))
		return
	}
	response.Success(w, deck)
}

// GetDeckWithCost returns a deck with its total cost and per-card breakdown.
func (h *DeckHandler) GetDeckWithCost(w http.ResponseWriter, r *http.Request) {
	deckID, err := deckIDParam(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	deck, err := h.views.DeckWithCost(r.Context(), deckID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if deck == nil {
		response.NotFound(w, errors.New("deck not found"))
		return
	}
	response.Success(w, deck)
}

// GetDeckDetailed returns a deck with enriched cards and its cost curve.
func (h *DeckHandler) GetDeckDetailed(w http.ResponseWriter, r *http.Request) {
	deckID, err := deckIDParam(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	deck, err := h.views.DeckDetailed(r.Context(), deckID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if deck == nil {
		response.NotFound(w, errors.New("deck not found"))
		return
	}
	response.Success(w, deck)
}
