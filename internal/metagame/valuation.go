package metagame

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// costCurveCap is the first cost folded into the "10+" bucket.
const costCurveCap = 10

// DeckValuation is the cost view of a deck.
// Totals are nil when no priced card contributed, which is distinct from a deck
// that genuinely costs 0.
type DeckValuation struct {
	TotalCostUSD  *float64           `json:"total_cost_usd"`
	TotalCostEUR  *float64           `json:"total_cost_eur"`
	CardBreakdown map[string]float64 `json:"card_breakdown,omitempty"` // card ID -> USD for all copies
}

// DeckCard is one card of a detailed deck view.
type DeckCard struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	CardType *string  `json:"card_type"`
	Cost     *int     `json:"cost"`
	Power    *int     `json:"power"`
	Color    *string  `json:"color"`
	Rarity   *string  `json:"rarity"`
	ImageURL *string  `json:"image_url"`
	Count    int      `json:"count"`
	PriceUSD *float64 `json:"price_usd"`
	PriceEUR *float64 `json:"price_eur"`
}

// DeckDetail is the deck viewer payload: valuation plus enriched cards and the
// cost curve.
type DeckDetail struct {
	TotalCostUSD *float64       `json:"total_cost_usd"`
	TotalCostEUR *float64       `json:"total_cost_eur"`
	Cards        []*DeckCard    `json:"cards"`
	CostCurve    map[string]int `json:"cost_curve"`
}

// DeckEntry is one (card, count) pair of a parsed deck list.
type DeckEntry struct {
	CardID string
	Count  int
}

// ParseDeckList decodes a deck list JSON object of card ID -> copy count.
// Entries with a non-positive count are dropped. The result is sorted by card ID.
// Malformed or empty input yields nil.
func ParseDeckList(raw *string) []DeckEntry {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}

	var counts map[string]int
	if err := json.Unmarshal([]byte(*raw), &counts); err != nil {
		return nil
	}

	entries := make([]DeckEntry, 0, len(counts))
	for cardID, count := range counts {
		if count <= 0 {
			continue
		}
		entries = append(entries, DeckEntry{CardID: cardID, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CardID < entries[j].CardID
	})
	return entries
}

// CardIDs returns the card IDs referenced by a deck list.
func CardIDs(entries []DeckEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.CardID
	}
	return ids
}

// unitPrices returns the per-copy USD and EUR prices of a price row.
// USD falls back to the market price; missing values are 0.
func unitPrices(price *models.CardPrice) (usd, eur float64) {
	usd, _ = price.USDValue()
	if price != nil && price.PriceEUR != nil {
		eur = *price.PriceEUR
	}
	return usd, eur
}

// totalOrNil rounds a running total and maps exactly zero to nil.
func totalOrNil(total float64) *float64 {
	if total == 0 {
		return nil
	}
	return models.Float(round2(total))
}

// ValueDeck computes the total cost of a deck and a per-card USD breakdown.
// latest maps card ID to its most recent price row across all sources; cards
// without a price contribute nothing.
func ValueDeck(deck *models.Deck, latest map[string]*models.CardPrice) *DeckValuation {
	valuation := &DeckValuation{}
	if deck == nil {
		return valuation
	}

	var totalUSD, totalEUR float64
	breakdown := make(map[string]float64)

	for _, entry := range ParseDeckList(deck.DeckListJSON) {
		price, ok := latest[entry.CardID]
		if !ok || price == nil {
			continue
		}
		usd, eur := unitPrices(price)
		lineUSD := usd * float64(entry.Count)
		totalUSD += lineUSD
		totalEUR += eur * float64(entry.Count)
		breakdown[entry.CardID] = lineUSD
	}

	valuation.TotalCostUSD = totalOrNil(totalUSD)
	valuation.TotalCostEUR = totalOrNil(totalEUR)
	if len(breakdown) > 0 {
		valuation.CardBreakdown = breakdown
	}
	return valuation
}

// DetailDeck builds the deck viewer payload. cards maps card ID to its catalog
// record; cards missing from the catalog are listed under their ID.
func DetailDeck(deck *models.Deck, cards map[string]*models.Card, latest map[string]*models.CardPrice) *DeckDetail {
	detail := &DeckDetail{
		Cards:     []*DeckCard{},
		CostCurve: map[string]int{},
	}
	if deck == nil {
		return detail
	}

	var totalUSD, totalEUR float64

	for _, entry := range ParseDeckList(deck.DeckListJSON) {
		dc := &DeckCard{ID: entry.CardID, Name: entry.CardID, Count: entry.Count}

		if price := latest[entry.CardID]; price != nil {
			usd, eur := unitPrices(price)
			if usd != 0 {
				dc.PriceUSD = models.Float(usd)
				totalUSD += usd * float64(entry.Count)
			}
			if price.PriceEUR != nil {
				dc.PriceEUR = models.Float(eur)
				totalEUR += eur * float64(entry.Count)
			}
		}

		if card := cards[entry.CardID]; card != nil {
			dc.Name = card.Name
			dc.CardType = card.CardType
			dc.Color = card.Color
			dc.Rarity = card.Rarity
			dc.ImageURL = card.ImageURL
			dc.Cost = parseInt(card.Cost)
			dc.Power = parseInt(card.Power)
		}

		if dc.Cost != nil {
			detail.CostCurve[costBucket(*dc.Cost)] += entry.Count
		}

		detail.Cards = append(detail.Cards, dc)
	}

	sortDeckCards(detail.Cards)

	detail.TotalCostUSD = totalOrNil(totalUSD)
	detail.TotalCostEUR = totalOrNil(totalEUR)
	return detail
}

// parseInt parses a catalog numeric field. Non-integer text yields nil.
func parseInt(s *string) *int {
	if s == nil {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &v
}

func costBucket(cost int) string {
	if cost >= costCurveCap {
		return strconv.Itoa(costCurveCap) + "+"
	}
	return strconv.Itoa(cost)
}

// cardTypeOrder is the display order of card types; unknown types sort last.
var cardTypeOrder = map[string]int{
	models.CardTypeLeader:    0,
	models.CardTypeCharacter: 1,
	models.CardTypeEvent:     2,
	models.CardTypeStage:     3,
}

func typeRank(cardType *string) int {
	if cardType == nil {
		return len(cardTypeOrder)
	}
	if rank, ok := cardTypeOrder[*cardType]; ok {
		return rank
	}
	return len(cardTypeOrder)
}

func costValue(cost *int) int {
	if cost == nil {
		return 0
	}
	return *cost
}

// sortDeckCards orders cards by type, then cost, then ID.
func sortDeckCards(cards []*DeckCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		ti, tj := typeRank(cards[i].CardType), typeRank(cards[j].CardType)
		if ti != tj {
			return ti < tj
		}
		ci, cj := costValue(cards[i].Cost), costValue(cards[j].Cost)
		if ci != cj {
			return ci < cj
		}
		return cards[i].ID < cards[j].ID
	})
}
