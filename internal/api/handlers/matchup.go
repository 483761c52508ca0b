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

// MatchupStore reads recorded matchups.
type MatchupStore interface {
	ListMatchups(ctx context.Context) ([]*models.Matchup, error)
	MatchupsForLeader(ctx context.Context, leaderID string) ([]*models.Matchup, error)
}

// MatchupView computes the matchup matrix and single derived matchups.
type MatchupView interface {
	Matrix(ctx context.Context) (*metagame.MatchupMatrix, error)
	Matchup(ctx context.Context, leaderA, leaderB string) (*metagame.MatchupCell, error)
}

// MatchupHandler handles matchup-related API requests.
type MatchupHandler struct {
	store MatchupStore
	views MatchupView
}

// NewMatchupHandler creates a new MatchupHandler.
func NewMatchupHandler(store MatchupStore, views MatchupView) *MatchupHandler {
	return &MatchupHandler{store: store, views: views}
}

// GetMatchups returns all recorded matchups.
func (h *MatchupHandler) GetMatchups(w http.ResponseWriter, r *http.Request) {
	matchups, err := h.store.ListMatchups(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, matchups)
}

// GetMatrix returns the complete matchup matrix.
func (h *MatchupHandler) GetMatrix(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.views.Matrix(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, matrix)
}

// GetLeaderMatchups returns the recorded matchups involving a leader on either side.
func (h *MatchupHandler) GetLeaderMatchups(w http.ResponseWriter, r *http.Request) {
	leaderID := chi.URLParam(r, "leaderID")
	if leaderID == "" {
		response.BadRequest(w, errors.New("leader ID is required"))
		return
	}

	matchups, err := h.store.MatchupsForLeader(r.Context(), leaderID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, matchups)
}

// GetMatchup returns the matchup of leaderA against leaderB, derived from the
// reverse record when only that one exists.
func (h *MatchupHandler) GetMatchup(w http.ResponseWriter, r *http.Request) {
	leaderA := chi.URLParam(r, "leaderA")
	leaderB := chi.URLParam(r, "leaderB")
	if leaderA == "" || leaderB == "" {
		response.BadRequest(w, errors.New("both leader IDs are required"))
		return
	}

	cell, err := h.views.Matchup(r.Context(), leaderA, leaderB)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if cell == nil {
		response.NotFound(w, errors.New("matchup not found"))
		return
	}
	response.Success(w, cell)
}
