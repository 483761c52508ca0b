package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ramonehamilton/OPTCG-Meta/internal/logger"
	"github.com/ramonehamilton/OPTCG-Meta/internal/metagame"
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage"
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// Updater runs a function against repositories bound to one transaction.
type Updater interface {
	Update(ctx context.Context, fn func(*storage.Repositories) error) error
}

// Recorder counts imported records per entity.
type Recorder interface {
	AddImported(entity string, n int)
}

// Result reports how many records of each entity were written.
type Result struct {
	Leaders  int `json:"leaders"`
	Cards    int `json:"cards"`
	Decks    int `json:"decks"`
	Matchups int `json:"matchups"`
	Prices   int `json:"prices"`
	Skipped  int `json:"skipped"`
}

// Importer writes seeds through the upsert contract.
type Importer struct {
	store Updater
	log   *logger.Logger
	rec   Recorder
	now   func() time.Time
}

// New creates an importer. log and rec may be nil.
func New(store Updater, log *logger.Logger, rec Recorder) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{
		store: store,
		log:   log.With("component", "importer"),
		rec:   rec,
		now:   time.Now,
	}
}

// Import writes the seed in a single transaction: either every record is
// written or none is. Records referencing unknown leaders or cards are skipped
// with a warning.
func (im *Importer) Import(ctx context.Context, seed *Seed) (*Result, error) {
	res := &Result{}
	now := im.now().UTC()

	err := im.store.Update(ctx, func(repos *storage.Repositories) error {
		*res = Result{}

		for i := range seed.Leaders {
			if err := im.importLeader(ctx, repos, &seed.Leaders[i], res); err != nil {
				return err
			}
		}
		for i := range seed.Cards {
			if err := im.importCard(ctx, repos, &seed.Cards[i], res); err != nil {
				return err
			}
		}
		for i := range seed.Decks {
			if err := im.importDeck(ctx, repos, &seed.Decks[i], res); err != nil {
				return err
			}
		}
		for i := range seed.Matchups {
			if err := im.importMatchup(ctx, repos, &seed.Matchups[i], res); err != nil {
				return err
			}
		}
		for i := range seed.Prices {
			if err := im.importPrice(ctx, repos, &seed.Prices[i], now, res); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if im.rec != nil {
		im.rec.AddImported("leaders", res.Leaders)
		im.rec.AddImported("cards", res.Cards)
		im.rec.AddImported("decks", res.Decks)
		im.rec.AddImported("matchups", res.Matchups)
		im.rec.AddImported("prices", res.Prices)
	}

	im.log.Info("import complete",
		"leaders", res.Leaders,
		"cards", res.Cards,
		"decks", res.Decks,
		"matchups", res.Matchups,
		"prices", res.Prices,
		"skipped", res.Skipped,
	)
	return res, nil
}

func (im *Importer) skip(res *Result, msg string, keysAndValues ...interface{}) {
	res.Skipped++
	im.log.Warn(msg, keysAndValues...)
}

func (im *Importer) importLeader(ctx context.Context, repos *storage.Repositories, rec *LeaderRecord, res *Result) error {
	if strings.TrimSpace(rec.ID) == "" {
		im.skip(res, "skipping leader without id", "name", rec.Name)
		return nil
	}
	_, err := repos.Leaders.Upsert(ctx, &models.Leader{
		ID:       rec.ID,
		Name:     rec.Name,
		Color:    rec.Color,
		ImageURL: rec.ImageURL,
	})
	if err != nil {
		return fmt.Errorf("failed to import leader %s: %w", rec.ID, err)
	}
	res.Leaders++
	return nil
}

func (im *Importer) importCard(ctx context.Context, repos *storage.Repositories, rec *CardRecord, res *Result) error {
	if strings.TrimSpace(rec.ID) == "" {
		im.skip(res, "skipping card without id", "name", rec.Name)
		return nil
	}
	_, err := repos.Cards.Upsert(ctx, &models.Card{
		ID:       rec.ID,
		Name:     rec.Name,
		SetCode:  rec.SetCode,
		Rarity:   rec.Rarity,
		CardType: rec.CardType,
		Color:    rec.Color,
		Cost:     rec.Cost,
		Power:    rec.Power,
		ImageURL: rec.ImageURL,
	})
	if err != nil {
		return fmt.Errorf("failed to import card %s: %w", rec.ID, err)
	}
	res.Cards++
	return nil
}

func (im *Importer) importDeck(ctx context.Context, repos *storage.Repositories, rec *DeckRecord, res *Result) error {
	leader, err := repos.Leaders.GetByID(ctx, rec.LeaderID)
	if err != nil {
		return fmt.Errorf("failed to resolve leader %s: %w", rec.LeaderID, err)
	}
	if leader == nil {
		im.skip(res, "skipping deck with unknown leader", "leader_id", rec.LeaderID, "source_url", rec.SourceURL)
		return nil
	}

	deckList, err := encodeDeckList(rec.DeckList)
	if err != nil {
		return fmt.Errorf("failed to encode deck list: %w", err)
	}

	deck := &models.Deck{
		LeaderID:      rec.LeaderID,
		SourceURL:     rec.SourceURL,
		DeckListJSON:  deckList,
		GamesPlayed:   rec.GamesPlayed,
		FirstWinRate:  rec.FirstWinRate,
		SecondWinRate: rec.SecondWinRate,
		Tier:          deckTier(rec),
	}
	if rec.WinRate != nil {
		deck.WinRate = *rec.WinRate
	}

	if _, err := repos.Decks.Upsert(ctx, deck); err != nil {
		return fmt.Errorf("failed to import deck for leader %s: %w", rec.LeaderID, err)
	}
	res.Decks++
	return nil
}

// deckTier grades a deck by its win rate, or by its meta share when no win
// rate is known.
func deckTier(rec *DeckRecord) *string {
	switch {
	case rec.WinRate != nil:
		return models.String(string(metagame.TierFor(*rec.WinRate)))
	case rec.MetaShare != nil:
		return models.String(string(metagame.MetaShareTier(*rec.MetaShare)))
	default:
		return nil
	}
}

// encodeDeckList stores a deck list as a JSON object keyed by card ID.
func encodeDeckList(list map[string]int) (*string, error) {
	if len(list) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return models.String(string(data)), nil
}

func (im *Importer) importMatchup(ctx context.Context, repos *storage.Repositories, rec *MatchupRecord, res *Result) error {
	for _, id := range []string{rec.LeaderAID, rec.LeaderBID} {
		leader, err := repos.Leaders.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to resolve leader %s: %w", id, err)
		}
		if leader == nil {
			im.skip(res, "skipping matchup with unknown leader", "leader_a_id", rec.LeaderAID, "leader_b_id", rec.LeaderBID)
			return nil
		}
	}

	_, err := repos.Matchups.Upsert(ctx, &models.Matchup{
		LeaderAID:     rec.LeaderAID,
		LeaderBID:     rec.LeaderBID,
		WinRateA:      rec.WinRateA,
		SampleSize:    rec.SampleSize,
		FirstWinRate:  rec.FirstWinRate,
		SecondWinRate: rec.SecondWinRate,
	})
	if err != nil {
		return fmt.Errorf("failed to import matchup %s vs %s: %w", rec.LeaderAID, rec.LeaderBID, err)
	}
	res.Matchups++
	return nil
}

func (im *Importer) importPrice(ctx context.Context, repos *storage.Repositories, rec *PriceRecord, now time.Time, res *Result) error {
	if strings.TrimSpace(rec.Source) == "" {
		im.skip(res, "skipping price without source", "card_id", rec.CardID)
		return nil
	}
	card, err := repos.Cards.GetByID(ctx, rec.CardID)
	if err != nil {
		return fmt.Errorf("failed to resolve card %s: %w", rec.CardID, err)
	}
	if card == nil {
		im.skip(res, "skipping price for unknown card", "card_id", rec.CardID, "source", rec.Source)
		return nil
	}

	fetchedAt := now
	if rec.FetchedAt != nil {
		fetchedAt = *rec.FetchedAt
	}

	err = repos.Prices.Insert(ctx, &models.CardPrice{
		CardID:      rec.CardID,
		Source:      rec.Source,
		PriceUSD:    rec.PriceUSD,
		PriceEUR:    rec.PriceEUR,
		MarketPrice: rec.MarketPrice,
		LowPrice:    rec.LowPrice,
		HighPrice:   rec.HighPrice,
		FetchedAt:   fetchedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to import price for %s: %w", rec.CardID, err)
	}
	res.Prices++
	return nil
}
