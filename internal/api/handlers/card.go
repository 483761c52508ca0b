package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/OPTCG-Meta/internal/api/response"
	"github.com/ramonehamilton/OPTCG-Meta/internal/metagame"
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// minSearchLength is the shortest accepted card search query.
const minSearchLength = 2

// CardStore reads cards.
type CardStore interface {
	ListCards(ctx context.Context, limit, offset int) ([]*models.Card, error)
	GetCard(ctx context.Context, id string) (*models.Card, error)
	SearchCards(ctx context.Context, query string, limit int) ([]*models.Card, error)
	CardsBySet(ctx context.Context, setCode string) ([]*models.Card, error)
	CardsByRarity(ctx context.Context, rarity string) ([]*models.Card, error)
}

// CardView computes priced card views.
type CardView interface {
	CardWithPrices(ctx context.Context, cardID string) (*metagame.CardWithPrices, error)
}

// CardHandler handles card-related API requests.
type CardHandler struct {
	store CardStore
	views CardView
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(store CardStore, views CardView) *CardHandler {
	return &CardHandler{store: store, views: views}
}

// GetCards returns a page of cards ordered by ID.
func (h *CardHandler) GetCards(w http.ResponseWriter, r *http.Request) {
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

	cards, err := h.store.ListCards(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, cards)
}

// SearchCards returns cards whose name contains the query.
func (h *CardHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(query)) < minSearchLength {
		response.BadRequest(w, errors.New("search query must be at least 2 characters"))
		return
	}
	limit, err := intQuery(r, "limit", 50, 1, 100)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	cards, err := h.store.SearchCards(r.Context(), query, limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, cards)
}

// GetSetCards returns all cards of a set.
func (h *CardHandler) GetSetCards(w http.ResponseWriter, r *http.Request) {
	setCode := chi.URLParam(r, "setCode")
	if setCode == "" {
		response.BadRequest(w, errors.New("set code is required"))
		return
	}

	cards, err := h.store.CardsBySet(r.Context(), setCode)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, cards)
}

// GetRarityCards returns all cards of a rarity.
func (h *CardHandler) GetRarityCards(w http.ResponseWriter, r *http.Request) {
	rarity := chi.URLParam(r, "rarity")
	if rarity == "" {
		response.BadRequest(w, errors.New("rarity is required"))
		return
	}

	cards, err := h.store.CardsByRarity(r.Context(), rarity)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, cards)
}

// GetCard returns a single card by ID.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		response.BadRequest(w, errors.New("card ID is required"))
		return
	}

	card, err := h.store.GetCard(r.Context(), cardID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if card == nil {
		response.NotFound(w, errors.New("card not found"))
		return
	}
	response.Success(w, card)
}

// GetCardWithPrices returns a card with its latest price per market.
func (h *CardHandler) GetCardWithPrices(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		response.BadRequest(w, errors.New("card ID is required"))
		return
	}

	card, err := h.views.CardWithPrices(r.Context(), cardID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if card == nil {
		response.NotFound(w, errors.New("card not found"))
		return
	}
	response.Success(w, card)
}
