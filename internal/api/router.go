package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/OPTCG-Meta/internal/api/handlers"
	"github.com/ramonehamilton/OPTCG-Meta/internal/api/response"
	"github.com/ramonehamilton/OPTCG-Meta/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Unversioned operational endpoints
	s.router.Get("/health", s.healthCheck)
	if s.deps.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	store, views := s.deps.Store, s.deps.Views

	s.router.Route("/api/v1", func(r chi.Router) {
		leaderHandler := handlers.NewLeaderHandler(store, views)
		r.Route("/leaders", func(r chi.Router) {
			r.Get("/", leaderHandler.GetLeaders)
			r.Get("/tier-list", leaderHandler.GetTierList)
			r.Get("/{leaderID}", leaderHandler.GetLeader)
		})

		deckHandler := handlers.NewDeckHandler(store, views)
		r.Route("/decks", func(r chi.Router) {
			r.Get("/", deckHandler.GetDecks)
			r.Get("/most-played", deckHandler.GetMostPlayed)
			r.Get("/most-successful", deckHandler.GetMostSuccessful)
			r.Get("/leader/{leaderID}", deckHandler.GetDecksByLeader)
			r.Get("/{deckID}", deckHandler.GetDeck)
			r.Get("/{deckID}/with-cost", deckHandler.GetDeckWithCost)
			r.Get("/{deckID}/detailed", deckHandler.GetDeckDetailed)
		})

		matchupHandler := handlers.NewMatchupHandler(store, views)
		r.Route("/matchups", func(r chi.Router) {
			r.Get("/", matchupHandler.GetMatchups)
			r.Get("/matrix", matchupHandler.GetMatrix)
			r.Get("/leader/{leaderID}", matchupHandler.GetLeaderMatchups)
			r.Get("/{leaderA}/{leaderB}", matchupHandler.GetMatchup)
		})

		cardHandler := handlers.NewCardHandler(store, views)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cardHandler.GetCards)
			r.Get("/search", cardHandler.SearchCards)
			r.Get("/set/{setCode}", cardHandler.GetSetCards)
			r.Get("/rarity/{rarity}", cardHandler.GetRarityCards)
			r.Get("/{cardID}", cardHandler.GetCard)
			r.Get("/{cardID}/with-prices", cardHandler.GetCardWithPrices)
		})

		priceHandler := handlers.NewPriceHandler(views, s.deps.Prices)
		r.Route("/prices", func(r chi.Router) {
			r.Get("/movers", priceHandler.GetMovers)
			r.Get("/card/{cardID}", priceHandler.GetPriceHistory)
			r.Get("/card/{cardID}/compare", priceHandler.ComparePrices)
			r.Get("/card/{cardID}/latest", priceHandler.GetLatestPrice)
		})
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(); err != nil {
			s.log.Warn("health check failed", "error", err)
			response.ServiceUnavailable(w, errors.New("database unavailable"))
			return
		}
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "optcg-stats",
		"version": version.GetVersion(),
	})
}
