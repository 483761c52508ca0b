package models

import "time"

// Known price sources.
const (
	SourceTCGPlayer  = "tcgplayer"
	SourceCardmarket = "cardmarket"
)

// Card types in display order.
const (
	CardTypeLeader    = "Leader"
	CardTypeCharacter = "Character"
	CardTypeEvent     = "Event"
	CardTypeStage     = "Stage"
)

// Leader is a card that anchors a deck archetype.
type Leader struct {
	ID        string    `json:"id"`    // Catalog key, e.g. "OP01-001"
	Name      string    `json:"name"`
	Color     string    `json:"color"` // One or more colors joined by "/"
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deck is a scraped deck record with its win-rate statistics.
type Deck struct {
	ID            int64     `json:"id"`
	LeaderID      string    `json:"leader_id"`
	DeckListJSON  *string   `json:"deck_list_json,omitempty"` // {"card_id": count, ...}
	WinRate       float64   `json:"win_rate"`
	GamesPlayed   int       `json:"games_played"`
	FirstWinRate  float64   `json:"first_win_rate"`
	SecondWinRate float64   `json:"second_win_rate"`
	Tier          *string   `json:"tier,omitempty"`
	SourceURL     *string   `json:"source_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Matchup is a directed head-to-head record from leader A's perspective.
// Only one direction is stored per pair.
type Matchup struct {
	ID            int64     `json:"id"`
	LeaderAID     string    `json:"leader_a_id"`
	LeaderBID     string    `json:"leader_b_id"`
	WinRateA      float64   `json:"win_rate_a"` // 0-100
	SampleSize    int       `json:"sample_size"`
	FirstWinRate  *float64  `json:"first_win_rate"`  // A going first
	SecondWinRate *float64  `json:"second_win_rate"` // A going second
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Card is a catalog entry. Cost and Power are stored as scraped text.
type Card struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SetCode   *string   `json:"set_code,omitempty"`
	Rarity    *string   `json:"rarity,omitempty"`
	CardType  *string   `json:"card_type,omitempty"`
	Color     *string   `json:"color,omitempty"`
	Cost      *string   `json:"cost,omitempty"`
	Power     *string   `json:"power,omitempty"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CardPrice is one append-only price sample for a card from one market.
type CardPrice struct {
	ID          int64     `json:"id"`
	CardID      string    `json:"card_id"`
	Source      string    `json:"source"`
	PriceUSD    *float64  `json:"price_usd"`
	PriceEUR    *float64  `json:"price_eur"`
	MarketPrice *float64  `json:"market_price"`
	LowPrice    *float64  `json:"low_price"`
	HighPrice   *float64  `json:"high_price"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// USDValue returns the USD price, falling back to the market price.
// The second return value is false when neither is set.
func (p *CardPrice) USDValue() (float64, bool) {
	if p == nil {
		return 0, false
	}
	if p.PriceUSD != nil && *p.PriceUSD != 0 {
		return *p.PriceUSD, true
	}
	if p.MarketPrice != nil && *p.MarketPrice != 0 {
		return *p.MarketPrice, true
	}
	return 0, false
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}
