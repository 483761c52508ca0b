package metagame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time {
	return testNow.Add(-time.Duration(d) * 24 * time.Hour)
}

func usdRow(id int64, cardID string, usd float64, at time.Time) *models.CardPrice {
	return &models.CardPrice{
		ID:        id,
		CardID:    cardID,
		Source:    models.SourceTCGPlayer,
		PriceUSD:  models.Float(usd),
		FetchedAt: at,
	}
}

func TestLatestPrice(t *testing.T) {
	history := []*models.CardPrice{
		usdRow(1, "C1", 1, daysAgo(3)),
		{ID: 2, CardID: "C1", Source: models.SourceCardmarket, PriceEUR: models.Float(0.9), FetchedAt: daysAgo(1)},
		usdRow(3, "C1", 1.5, daysAgo(2)),
		usdRow(4, "C1", 1.6, daysAgo(2)),
	}

	latest := LatestPrice(history, "")
	require.NotNil(t, latest)
	assert.Equal(t, int64(2), latest.ID)

	tcg := LatestPrice(history, models.SourceTCGPlayer)
	require.NotNil(t, tcg)
	assert.Equal(t, int64(4), tcg.ID)

	assert.Nil(t, LatestPrice(history, "ebay"))
	assert.Nil(t, LatestPrice(nil, ""))
}

func TestPriceHistory(t *testing.T) {
	history := []*models.CardPrice{
		usdRow(3, "C1", 3, daysAgo(1)),
		usdRow(1, "C1", 1, daysAgo(40)),
		usdRow(2, "C1", 2, daysAgo(10)),
	}

	got := PriceHistory(history, 30, testNow)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
	assert.Equal(t, int64(3), history[0].ID, "input must not be reordered")

	assert.Empty(t, PriceHistory(history, 0, testNow))
}

func TestTopMovers_Gainer(t *testing.T) {
	cards := []*models.Card{{ID: "C1", Name: "Shanks"}}
	rows := []*models.CardPrice{
		usdRow(1, "C1", 10, daysAgo(5)),
		usdRow(2, "C1", 12, daysAgo(1)),
	}

	movers := TopMovers(cards, OldestPerCard(rows), NewestPerCard(rows), 20)
	require.Len(t, movers.Gainers, 1)
	assert.Empty(t, movers.Losers)

	m := movers.Gainers[0]
	assert.Equal(t, "C1", m.CardID)
	assert.Equal(t, "Shanks", m.CardName)
	assert.Equal(t, 10.0, m.OldPrice)
	assert.Equal(t, 12.0, m.NewPrice)
	assert.Equal(t, 20.0, m.ChangePct)
}

func TestTopMovers_Exclusions(t *testing.T) {
	cards := []*models.Card{
		{ID: "NOWINDOW", Name: "No window rows"},
		{ID: "SINGLE", Name: "Single row"},
		{ID: "FREE", Name: "Zero old price"},
		{ID: "FLAT", Name: "Unchanged"},
	}
	window := []*models.CardPrice{
		usdRow(2, "SINGLE", 4, daysAgo(1)),
		usdRow(3, "FREE", 0, daysAgo(6)),
		usdRow(5, "FLAT", 2, daysAgo(6)),
	}
	newest := []*models.CardPrice{
		usdRow(1, "NOWINDOW", 9, daysAgo(30)),
		usdRow(2, "SINGLE", 4, daysAgo(1)),
		usdRow(4, "FREE", 1, daysAgo(1)),
		usdRow(6, "FLAT", 2, daysAgo(1)),
	}

	movers := TopMovers(cards, OldestPerCard(window), NewestPerCard(newest), 20)
	assert.NotNil(t, movers.Gainers)
	assert.NotNil(t, movers.Losers)
	assert.Empty(t, movers.Gainers)
	assert.Empty(t, movers.Losers)
}

func TestTopMovers_OrderingAndLimit(t *testing.T) {
	cards := []*models.Card{
		{ID: "A", Name: "a"}, {ID: "B", Name: "b"}, {ID: "C", Name: "c"},
		{ID: "D", Name: "d"}, {ID: "E", Name: "e"},
	}
	var rows []*models.CardPrice
	add := func(card string, oldP, newP float64) {
		id := int64(len(rows) + 1)
		rows = append(rows,
			usdRow(id*10, card, oldP, daysAgo(6)),
			usdRow(id*10+1, card, newP, daysAgo(1)),
		)
	}
	add("A", 10, 11) // +10
	add("B", 10, 15) // +50
	add("C", 10, 5)  // -50
	add("D", 10, 12) // +20
	add("E", 10, 9)  // -10

	movers := TopMovers(cards, OldestPerCard(rows), NewestPerCard(rows), 2)
	require.Len(t, movers.Gainers, 2)
	assert.Equal(t, "B", movers.Gainers[0].CardID)
	assert.Equal(t, "D", movers.Gainers[1].CardID)
	require.Len(t, movers.Losers, 2)
	assert.Equal(t, "C", movers.Losers[0].CardID)
	assert.Equal(t, -50.0, movers.Losers[0].ChangePct)
	assert.Equal(t, "E", movers.Losers[1].CardID)
}

func TestTopMovers_MarketFallback(t *testing.T) {
	cards := []*models.Card{{ID: "C1", Name: "Ace"}}
	old := &models.CardPrice{ID: 1, CardID: "C1", MarketPrice: models.Float(4), FetchedAt: daysAgo(3)}
	cur := &models.CardPrice{ID: 2, CardID: "C1", PriceUSD: models.Float(3), FetchedAt: daysAgo(0)}

	movers := TopMovers(cards,
		map[string]*models.CardPrice{"C1": old},
		map[string]*models.CardPrice{"C1": cur}, 5)
	require.Len(t, movers.Losers, 1)
	assert.Equal(t, -25.0, movers.Losers[0].ChangePct)
}

func TestComparePrices(t *testing.T) {
	history := []*models.CardPrice{
		{ID: 1, Source: models.SourceTCGPlayer, PriceUSD: models.Float(1), MarketPrice: models.Float(1.1), FetchedAt: daysAgo(4)},
		{ID: 2, Source: models.SourceTCGPlayer, PriceUSD: models.Float(2), MarketPrice: models.Float(2.2), FetchedAt: daysAgo(1)},
	}

	cmp := ComparePrices(history)
	require.NotNil(t, cmp.TCGPlayerUSD)
	assert.Equal(t, 2.0, *cmp.TCGPlayerUSD)
	assert.Equal(t, 2.2, *cmp.TCGPlayerMarket)
	assert.Nil(t, cmp.CardmarketEUR)
	assert.Nil(t, cmp.CardmarketMarket)

	empty := ComparePrices(nil)
	assert.Nil(t, empty.TCGPlayerUSD)
}

func TestBuildCardWithPrices(t *testing.T) {
	card := &models.Card{ID: "OP05-119", Name: "Luffy"}
	history := []*models.CardPrice{
		{ID: 1, Source: "ebay", PriceUSD: models.Float(80), FetchedAt: daysAgo(1)},
		{ID: 2, Source: models.SourceCardmarket, PriceUSD: models.Float(0), PriceEUR: models.Float(70), FetchedAt: daysAgo(1)},
		{ID: 3, Source: models.SourceTCGPlayer, PriceUSD: models.Float(95), FetchedAt: daysAgo(3)},
		{ID: 4, Source: models.SourceTCGPlayer, PriceUSD: models.Float(90), FetchedAt: daysAgo(1)},
	}

	out := BuildCardWithPrices(card, history, []string{models.SourceTCGPlayer, models.SourceCardmarket})
	require.NotNil(t, out)
	assert.Equal(t, "Luffy", out.Name)

	require.Len(t, out.Prices, 3)
	assert.Equal(t, models.SourceTCGPlayer, out.Prices[0].Source)
	assert.Equal(t, 90.0, *out.Prices[0].PriceUSD)
	assert.Equal(t, models.SourceCardmarket, out.Prices[1].Source)
	assert.Equal(t, "ebay", out.Prices[2].Source)

	require.NotNil(t, out.BestPriceUSD)
	assert.Equal(t, 80.0, *out.BestPriceUSD)
	require.NotNil(t, out.BestPriceEUR)
	assert.Equal(t, 70.0, *out.BestPriceEUR)

	bare := BuildCardWithPrices(card, nil, nil)
	assert.Empty(t, bare.Prices)
	assert.Nil(t, bare.BestPriceUSD)

	assert.Nil(t, BuildCardWithPrices(nil, history, nil))
}
