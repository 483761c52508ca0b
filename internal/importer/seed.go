// Package importer loads leaders, cards, decks, matchups and prices from a
// YAML seed file into the database.
package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Seed is the document layout of an import file.
type Seed struct {
	Leaders  []LeaderRecord  `yaml:"leaders"`
	Cards    []CardRecord    `yaml:"cards"`
	Decks    []DeckRecord    `yaml:"decks"`
	Matchups []MatchupRecord `yaml:"matchups"`
	Prices   []PriceRecord   `yaml:"prices"`
}

// LeaderRecord is one leader entry.
type LeaderRecord struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Color    string  `yaml:"color"`
	ImageURL *string `yaml:"image_url"`
}

// CardRecord is one catalog card entry. Cost and power keep their scraped text.
type CardRecord struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	SetCode  *string `yaml:"set_code"`
	Rarity   *string `yaml:"rarity"`
	CardType *string `yaml:"card_type"`
	Color    *string `yaml:"color"`
	Cost     *string `yaml:"cost"`
	Power    *string `yaml:"power"`
	ImageURL *string `yaml:"image_url"`
}

// DeckRecord is one deck entry. When win_rate is absent the tier is derived
// from meta_share instead.
type DeckRecord struct {
	LeaderID      string         `yaml:"leader_id"`
	SourceURL     *string        `yaml:"source_url"`
	DeckList      map[string]int `yaml:"deck_list"`
	WinRate       *float64       `yaml:"win_rate"`
	GamesPlayed   int            `yaml:"games_played"`
	FirstWinRate  float64        `yaml:"first_win_rate"`
	SecondWinRate float64        `yaml:"second_win_rate"`
	MetaShare     *float64       `yaml:"meta_share"`
}

// MatchupRecord is one directed matchup entry from leader A's perspective.
type MatchupRecord struct {
	LeaderAID     string   `yaml:"leader_a_id"`
	LeaderBID     string   `yaml:"leader_b_id"`
	WinRateA      float64  `yaml:"win_rate_a"`
	SampleSize    int      `yaml:"sample_size"`
	FirstWinRate  *float64 `yaml:"first_win_rate"`
	SecondWinRate *float64 `yaml:"second_win_rate"`
}

// PriceRecord is one price sample. A missing fetched_at means the import time.
type PriceRecord struct {
	CardID      string     `yaml:"card_id"`
	Source      string     `yaml:"source"`
	PriceUSD    *float64   `yaml:"price_usd"`
	PriceEUR    *float64   `yaml:"price_eur"`
	MarketPrice *float64   `yaml:"market_price"`
	LowPrice    *float64   `yaml:"low_price"`
	HighPrice   *float64   `yaml:"high_price"`
	FetchedAt   *time.Time `yaml:"fetched_at"`
}

// Parse decodes a seed document. Unknown keys are rejected; an empty document
// yields an empty seed.
func Parse(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &seed, nil
}

// ParseFile reads and decodes the seed file at path.
func ParseFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}
