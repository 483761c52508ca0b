package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/OPTCG-Meta/internal/api/response"
	"github.com/ramonehamilton/OPTCG-Meta/internal/metagame"
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// PriceView computes price views.
type PriceView interface {
	PriceHistory(ctx context.Context, cardID string, days int) ([]*models.CardPrice, error)
	ComparePrices(ctx context.Context, cardID string) (*metagame.PriceComparison, error)
	LatestPrice(ctx context.Context, cardID, source string) (*models.CardPrice, error)
	TopMovers(ctx context.Context, days, limit int) (*metagame.Movers, error)
}

// PriceDefaults holds the windows used when a request does not specify one.
type PriceDefaults struct {
	HistoryDays int
	MoversDays  int
	MoversLimit int
}

// DefaultPriceDefaults returns the standard price windows.
func DefaultPriceDefaults() PriceDefaults {
	return PriceDefaults{HistoryDays: 30, MoversDays: 7, MoversLimit: 20}
}

// PriceHandler handles price-related API requests.
type PriceHandler struct {
	views    PriceView
	defaults PriceDefaults
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(views PriceView, defaults PriceDefaults) *PriceHandler {
	return &PriceHandler{views: views, defaults: defaults}
}

// GetPriceHistory returns the card's price samples of the last days days.
func (h *PriceHandler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		response.BadRequest(w, errors.New("card ID is required"))
		return
	}
	days, err := intQuery(r, "days", h.defaults.HistoryDays, 1, 365)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	history, err := h.views.PriceHistory(r.Context(), cardID, days)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, history)
}

// ComparePrices returns the card's latest price on each market.
func (h *PriceHandler) ComparePrices(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		response.BadRequest(w, errors.New("card ID is required"))
		return
	}

	cmp, err := h.views.ComparePrices(r.Context(), cardID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, cmp)
}

// GetLatestPrice returns the card's most recent price, optionally for one source.
func (h *PriceHandler) GetLatestPrice(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		response.BadRequest(w, errors.New("card ID is required"))
		return
	}

	price, err := h.views.LatestPrice(r.Context(), cardID, r.URL.Query().Get("source"))
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if price == nil {
		response.NotFound(w, errors.New("no price found"))
		return
	}
	response.Success(w, price)
}

// GetMovers returns the cards with the largest price changes.
func (h *PriceHandler) GetMovers(w http.ResponseWriter, r *http.Request) {
	days, err := intQuery(r, "days", h.defaults.MoversDays, 1, 30)
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	limit, err := intQuery(r, "limit", h.defaults.MoversLimit, 1, 50)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	movers, err := h.views.TopMovers(r.Context(), days, limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, movers)
}
