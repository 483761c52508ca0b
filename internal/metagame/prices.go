package metagame

import (
	"math"
	"sort"
	"time"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// Mover is a card whose price moved inside the requested window.
type Mover struct {
	CardID    string  `json:"card_id"`
	CardName  string  `json:"card_name"`
	OldPrice  float64 `json:"old_price"`
	NewPrice  float64 `json:"new_price"`
	ChangePct float64 `json:"change_pct"`
}

// Movers splits price movers into gainers and losers, largest swing first.
type Movers struct {
	Gainers []*Mover `json:"gainers"`
	Losers  []*Mover `json:"losers"`
}

// PriceComparison is the latest price of a card on each known market, side by
// side. Absent markets leave their fields null.
type PriceComparison struct {
	TCGPlayerUSD     *float64 `json:"tcgplayer_usd"`
	CardmarketEUR    *float64 `json:"cardmarket_eur"`
	TCGPlayerMarket  *float64 `json:"tcgplayer_market"`
	CardmarketMarket *float64 `json:"cardmarket_market"`
}

// CardPriceInfo is the latest price sample of one source.
type CardPriceInfo struct {
	Source      string    `json:"source"`
	PriceUSD    *float64  `json:"price_usd"`
	PriceEUR    *float64  `json:"price_eur"`
	MarketPrice *float64  `json:"market_price"`
	LowPrice    *float64  `json:"low_price"`
	HighPrice   *float64  `json:"high_price"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// CardWithPrices is a catalog card with its latest price per source and the best
// price across sources.
type CardWithPrices struct {
	models.Card
	Prices       []*CardPriceInfo `json:"prices"`
	BestPriceUSD *float64         `json:"best_price_usd"`
	BestPriceEUR *float64         `json:"best_price_eur"`
}

// newer reports whether a is a later sample than b. Equal timestamps fall back to
// the row ID so the order is total.
func newer(a, b *models.CardPrice) bool {
	if !a.FetchedAt.Equal(b.FetchedAt) {
		return a.FetchedAt.After(b.FetchedAt)
	}
	return a.ID > b.ID
}

// LatestPrice returns the most recent row of history, optionally restricted to
// one source. An empty source matches every source.
func LatestPrice(history []*models.CardPrice, source string) *models.CardPrice {
	var latest *models.CardPrice
	for _, p := range history {
		if p == nil || (source != "" && p.Source != source) {
			continue
		}
		if latest == nil || newer(p, latest) {
			latest = p
		}
	}
	return latest
}

// LatestPerSource returns the most recent row of each source present in history.
func LatestPerSource(history []*models.CardPrice) map[string]*models.CardPrice {
	latest := make(map[string]*models.CardPrice)
	for _, p := range history {
		if p == nil {
			continue
		}
		if cur, ok := latest[p.Source]; !ok || newer(p, cur) {
			latest[p.Source] = p
		}
	}
	return latest
}

// PriceHistory returns the rows fetched within the last days days of now, oldest
// first. The input is not modified.
func PriceHistory(history []*models.CardPrice, days int, now time.Time) []*models.CardPrice {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	out := make([]*models.CardPrice, 0, len(history))
	for _, p := range history {
		if p == nil || p.FetchedAt.Before(cutoff) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[j], out[i])
	})
	return out
}

// OldestPerCard returns the earliest row of each card in rows.
func OldestPerCard(rows []*models.CardPrice) map[string]*models.CardPrice {
	oldest := make(map[string]*models.CardPrice)
	for _, p := range rows {
		if p == nil {
			continue
		}
		if cur, ok := oldest[p.CardID]; !ok || newer(cur, p) {
			oldest[p.CardID] = p
		}
	}
	return oldest
}

// NewestPerCard returns the latest row of each card in rows.
func NewestPerCard(rows []*models.CardPrice) map[string]*models.CardPrice {
	newest := make(map[string]*models.CardPrice)
	for _, p := range rows {
		if p == nil {
			continue
		}
		if cur, ok := newest[p.CardID]; !ok || newer(p, cur) {
			newest[p.CardID] = p
		}
	}
	return newest
}

// TopMovers compares, for every card, the oldest price inside the window with the
// newest price overall. windowOldest and newest are keyed by card ID (see
// OldestPerCard and NewestPerCard). Cards missing either endpoint, whose endpoints
// are the same row, or whose old price is 0 carry no movement signal and are
// skipped. Gainers and losers are each truncated to limit.
func TopMovers(cards []*models.Card, windowOldest, newest map[string]*models.CardPrice, limit int) *Movers {
	movers := make([]*Mover, 0)

	for _, card := range cards {
		if card == nil {
			continue
		}
		oldRow, newRow := windowOldest[card.ID], newest[card.ID]
		if oldRow == nil || newRow == nil || oldRow.ID == newRow.ID {
			continue
		}

		oldVal, _ := oldRow.USDValue()
		newVal, _ := newRow.USDValue()
		if oldVal <= 0 {
			continue
		}

		movers = append(movers, &Mover{
			CardID:    card.ID,
			CardName:  card.Name,
			OldPrice:  oldVal,
			NewPrice:  newVal,
			ChangePct: round2((newVal - oldVal) / oldVal * 100),
		})
	}

	sort.SliceStable(movers, func(i, j int) bool {
		ai, aj := math.Abs(movers[i].ChangePct), math.Abs(movers[j].ChangePct)
		if ai != aj {
			return ai > aj
		}
		return movers[i].CardID < movers[j].CardID
	})

	result := &Movers{Gainers: []*Mover{}, Losers: []*Mover{}}
	for _, m := range movers {
		switch {
		case m.ChangePct > 0 && len(result.Gainers) < limit:
			result.Gainers = append(result.Gainers, m)
		case m.ChangePct < 0 && len(result.Losers) < limit:
			result.Losers = append(result.Losers, m)
		}
	}
	return result
}

// ComparePrices lays out the latest tcgplayer and cardmarket prices of a card.
func ComparePrices(history []*models.CardPrice) *PriceComparison {
	latest := LatestPerSource(history)
	cmp := &PriceComparison{}

	if p := latest[models.SourceTCGPlayer]; p != nil {
		cmp.TCGPlayerUSD = p.PriceUSD
		cmp.TCGPlayerMarket = p.MarketPrice
	}
	if p := latest[models.SourceCardmarket]; p != nil {
		cmp.CardmarketEUR = p.PriceEUR
		cmp.CardmarketMarket = p.MarketPrice
	}
	return cmp
}

// BuildCardWithPrices attaches the latest price per source to a card. Sources are
// listed in sourceOrder first, then any other source alphabetically. The best
// prices are the lowest non-zero values across sources.
func BuildCardWithPrices(card *models.Card, history []*models.CardPrice, sourceOrder []string) *CardWithPrices {
	if card == nil {
		return nil
	}

	latest := LatestPerSource(history)
	sources := orderedSources(latest, sourceOrder)

	out := &CardWithPrices{Card: *card, Prices: make([]*CardPriceInfo, 0, len(sources))}
	for _, source := range sources {
		p := latest[source]
		out.Prices = append(out.Prices, &CardPriceInfo{
			Source:      p.Source,
			PriceUSD:    p.PriceUSD,
			PriceEUR:    p.PriceEUR,
			MarketPrice: p.MarketPrice,
			LowPrice:    p.LowPrice,
			HighPrice:   p.HighPrice,
			FetchedAt:   p.FetchedAt,
		})
		out.BestPriceUSD = minPositive(out.BestPriceUSD, p.PriceUSD)
		out.BestPriceEUR = minPositive(out.BestPriceEUR, p.PriceEUR)
	}
	return out
}

func orderedSources(latest map[string]*models.CardPrice, order []string) []string {
	sources := make([]string, 0, len(latest))
	seen := make(map[string]bool, len(latest))
	for _, s := range order {
		if _, ok := latest[s]; ok && !seen[s] {
			sources = append(sources, s)
			seen[s] = true
		}
	}
	var rest []string
	for s := range latest {
		if !seen[s] {
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	return append(sources, rest...)
}

func minPositive(cur, candidate *float64) *float64 {
	if candidate == nil || *candidate <= 0 {
		return cur
	}
	if cur == nil || *candidate < *cur {
		return models.Float(*candidate)
	}
	return cur
}
