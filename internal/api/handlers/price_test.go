package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/OPTCG-Meta/internal/metagame"
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

func TestPriceHandler_GetPriceHistory(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantDays   int
	}{
		{"default window", "/prices/card/OP01-016", http.StatusOK, 30},
		{"explicit window", "/prices/card/OP01-016?days=90", http.StatusOK, 90},
		{"one year", "/prices/card/OP01-016?days=365", http.StatusOK, 365},
		{"too long", "/prices/card/OP01-016?days=366", http.StatusBadRequest, 0},
		{"zero", "/prices/card/OP01-016?days=0", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockBackend{history: []*models.CardPrice{}}
			h := NewPriceHandler(mock, DefaultPriceDefaults())

			rec := serve(t, "/prices/card/{cardID}", h.GetPriceHistory, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "OP01-016", mock.gotID)
				assert.Equal(t, tt.wantDays, mock.gotDays)
			}
		})
	}
}

func TestPriceHandler_ConfiguredDefaults(t *testing.T) {
	mock := &mockBackend{history: []*models.CardPrice{}, movers: &metagame.Movers{}}
	h := NewPriceHandler(mock, PriceDefaults{HistoryDays: 14, MoversDays: 3, MoversLimit: 5})

	rec := serve(t, "/prices/card/{cardID}", h.GetPriceHistory, "/prices/card/OP01-016")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 14, mock.gotDays)

	rec = serve(t, "/prices/movers", h.GetMovers, "/prices/movers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, mock.gotDays)
	assert.Equal(t, 5, mock.gotLimit)
}

func TestPriceHandler_ComparePrices(t *testing.T) {
	mock := &mockBackend{compare: &metagame.PriceComparison{CardmarketEUR: models.Float(1.5)}}
	h := NewPriceHandler(mock, DefaultPriceDefaults())

	rec := serve(t, "/prices/card/{cardID}/compare", h.ComparePrices, "/prices/card/OP01-016/compare")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeData(t, rec, &body)
	assert.Equal(t, 1.5, body["cardmarket_eur"])
	assert.Nil(t, body["tcgplayer_usd"])
}

func TestPriceHandler_GetLatestPrice(t *testing.T) {
	mock := &mockBackend{price: &models.CardPrice{
		ID: 9, CardID: "OP01-016", Source: models.SourceCardmarket, PriceEUR: models.Float(1.2), FetchedAt: fixedTime,
	}}
	h := NewPriceHandler(mock, DefaultPriceDefaults())

	rec := serve(t, "/prices/card/{cardID}/latest", h.GetLatestPrice, "/prices/card/OP01-016/latest?source=cardmarket")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SourceCardmarket, mock.gotSource)

	var price models.CardPrice
	decodeData(t, rec, &price)
	assert.Equal(t, int64(9), price.ID)
	assert.True(t, price.FetchedAt.Equal(fixedTime))

	rec = serve(t, "/prices/card/{cardID}/latest", h.GetLatestPrice, "/prices/card/OP01-016/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", mock.gotSource)

	missing := &mockBackend{}
	h = NewPriceHandler(missing, DefaultPriceDefaults())
	rec = serve(t, "/prices/card/{cardID}/latest", h.GetLatestPrice, "/prices/card/OP01-016/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPriceHandler_GetMovers(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantDays   int
		wantLimit  int
	}{
		{"defaults", "/prices/movers", http.StatusOK, 7, 20},
		{"explicit", "/prices/movers?days=30&limit=50", http.StatusOK, 30, 50},
		{"days too long", "/prices/movers?days=31", http.StatusBadRequest, 0, 0},
		{"limit too high", "/prices/movers?limit=51", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockBackend{movers: &metagame.Movers{
				Gainers: []*metagame.Mover{{CardID: "C1", OldPrice: 10, NewPrice: 12, ChangePct: 20}},
				Losers:  []*metagame.Mover{},
			}}
			h := NewPriceHandler(mock, DefaultPriceDefaults())

			rec := serve(t, "/prices/movers", h.GetMovers, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantDays, mock.gotDays)
			assert.Equal(t, tt.wantLimit, mock.gotLimit)

			var movers metagame.Movers
			decodeData(t, rec, &movers)
			require.Len(t, movers.Gainers, 1)
			assert.Equal(t, 20.0, movers.Gainers[0].ChangePct)
		})
	}
}
