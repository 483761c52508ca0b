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

// LeaderStore reads leaders.
type LeaderStore interface {
	ListLeaders(ctx context.Context) ([]*models.Leader, error)
	GetLeader(ctx context.Context, id string) (*models.Leader, error)
}

// TierListView computes the leader tier list.
type TierListView interface {
	TierList(ctx context.Context) ([]*metagame.LeaderStats, error)
}

// LeaderHandler handles leader-related API requests.
type LeaderHandler struct {
	store LeaderStore
	tiers TierListView
}

// NewLeaderHandler creates a new LeaderHandler.
func NewLeaderHandler(store LeaderStore, tiers TierListView) *LeaderHandler {
	return &LeaderHandler{store: store, tiers: tiers}
}

// GetLeaders returns all leaders.
func (h *LeaderHandler) GetLeaders(w http.ResponseWriter, r *http.Request) {
	leaders, err := h.store.ListLeaders(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, leaders)
}

// GetTierList returns leaders ranked by aggregated win rate.
func (h *LeaderHandler) GetTierList(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.tiers.TierList(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, tiers)
}

// GetLeader returns a single leader by ID.
func (h *LeaderHandler) GetLeader(w http.ResponseWriter, r *http.Request) {
	leaderID := chi.URLParam(r, "leaderID")
	if leaderID == "" {
		response.BadRequest(w, errors.New("leader ID is required"))
		return
	}

	leader, err := h.store.GetLeader(r.Context(), leaderID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if leader == nil {
		response.NotFound(w, errors.New("leader not found"))
		return
	}
	response.Success(w, leader)
}
