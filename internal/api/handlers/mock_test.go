package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/OPTCG-Meta/internal/metagame"
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// mockBackend implements every store and view interface the handlers consume.
// Arguments of the last call are recorded so tests can assert on parsed
// query parameters.
type mockBackend struct {
	leaders  []*models.Leader
	leader   *models.Leader
	tiers    []*metagame.LeaderStats
	decks    []*models.Deck
	deck     *models.Deck
	withCost *metagame.DeckWithCost
	detailed *metagame.DeckDetailed
	matchups []*models.Matchup
	matrix   *metagame.MatchupMatrix
	cell     *metagame.MatchupCell
	cards    []*models.Card
	card     *models.Card
	priced   *metagame.CardWithPrices
	history  []*models.CardPrice
	price    *models.CardPrice
	compare  *metagame.PriceComparison
	movers   *metagame.Movers
	err      error

	gotLimit    int
	gotOffset   int
	gotMinGames int
	gotDays     int
	gotQuery    string
	gotSource   string
	gotID       string
	gotDeckID   int64
}

func (m *mockBackend) ListLeaders(_ context.Context) ([]*models.Leader, error) {
	return m.leaders, m.err
}

func (m *mockBackend) GetLeader(_ context.Context, id string) (*models.Leader, error) {
	m.gotID = id
	return m.leader, m.err
}

func (m *mockBackend) TierList(_ context.Context) ([]*metagame.LeaderStats, error) {
	return m.tiers, m.err
}

func (m *mockBackend) ListDecks(_ context.Context, limit, offset int) ([]*models.Deck, error) {
	m.gotLimit, m.gotOffset = limit, offset
	return m.decks, m.err
}

func (m *mockBackend) GetDeck(_ context.Context, id int64) (*models.Deck, error) {
	m.gotDeckID = id
	return m.deck, m.err
}

func (m *mockBackend) DecksByLeader(_ context.Context, leaderID string) ([]*models.Deck, error) {
	m.gotID = leaderID
	return m.decks, m.err
}

func (m *mockBackend) MostPlayedDecks(_ context.Context, limit int) ([]*models.Deck, error) {
	m.gotLimit = limit
	return m.decks, m.err
}

func (m *mockBackend) MostSuccessfulDecks(_ context.Context, minGames, limit int) ([]*models.Deck, error) {
	m.gotMinGames, m.gotLimit = minGames, limit
	return m.decks, m.err
}

func (m *mockBackend) DeckWithCost(_ context.Context, id int64) (*metagame.DeckWithCost, error) {
	m.gotDeckID = id
	return m.withCost, m.err
}

func (m *mockBackend) DeckDetailed(_ context.Context, id int64) (*metagame.DeckDetailed, error) {
	m.gotDeckID = id
	return m.detailed, m.err
}

func (m *mockBackend) ListMatchups(_ context.Context) ([]*models.Matchup, error) {
	return m.matchups, m.err
}

func (m *mockBackend) MatchupsForLeader(_ context.Context, leaderID string) ([]*models.Matchup, error) {
	m.gotID = leaderID
	return m.matchups, m.err
}

func (m *mockBackend) Matrix(_ context.Context) (*metagame.MatchupMatrix, error) {
	return m.matrix, m.err
}

func (m *mockBackend) Matchup(_ context.Context, a, b string) (*metagame.MatchupCell, error) {
	m.gotID = a + "/" + b
	return m.cell, m.err
}

func (m *mockBackend) ListCards(_ context.Context, limit, offset int) ([]*models.Card, error) {
	m.gotLimit, m.gotOffset = limit, offset
	return m.cards, m.err
}

func (m *mockBackend) GetCard(_ context.Context, id string) (*models.Card, error) {
	m.gotID = id
	return m.card, m.err
}

func (m *mockBackend) SearchCards(_ context.Context, query string, limit int) ([]*models.Card, error) {
	m.gotQuery, m.gotLimit = query, limit
	return m.cards, m.err
}

func (m *mockBackend) CardsBySet(_ context.Context, setCode string) ([]*models.Card, error) {
	m.gotID = setCode
	return m.cards, m.err
}

func (m *mockBackend) CardsByRarity(_ context.Context, rarity string) ([]*models.Card, error) {
	m.gotID = rarity
	return m.cards, m.err
}

func (m *mockBackend) CardWithPrices(_ context.Context, id string) (*metagame.CardWithPrices, error) {
	m.gotID = id
	return m.priced, m.err
}

func (m *mockBackend) PriceHistory(_ context.Context, id string, days int) ([]*models.CardPrice, error) {
	m.gotID, m.gotDays = id, days
	return m.history, m.err
}

func (m *mockBackend) ComparePrices(_ context.Context, id string) (*metagame.PriceComparison, error) {
	m.gotID = id
	return m.compare, m.err
}

func (m *mockBackend) LatestPrice(_ context.Context, id, source string) (*models.CardPrice, error) {
	m.gotID, m.gotSource = id, source
	return m.price, m.err
}

func (m *mockBackend) TopMovers(_ context.Context, days, limit int) (*metagame.Movers, error) {
	m.gotDays, m.gotLimit = days, limit
	return m.movers, m.err
}

// serve routes a single GET request through chi so URL parameters resolve.
func serve(t *testing.T, pattern string, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Get(pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// decodeData unmarshals the data field of a success envelope into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

var fixedTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
