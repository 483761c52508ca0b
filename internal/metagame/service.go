package metagame

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/OPTCG-Meta/internal/logger"
	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// Store is the persistence read contract the service depends on.
// Lookups by ID return (nil, nil) when the entity does not exist.
type Store interface {
	ListLeaders(ctx context.Context) ([]*models.Leader, error)
	GetLeader(ctx context.Context, id string) (*models.Leader, error)

	ListAllDecks(ctx context.Context) ([]*models.Deck, error)
	GetDeck(ctx context.Context, id int64) (*models.Deck, error)

	ListMatchups(ctx context.Context) ([]*models.Matchup, error)
	MatchupsForLeader(ctx context.Context, leaderID string) ([]*models.Matchup, error)

	ListAllCards(ctx context.Context) ([]*models.Card, error)
	GetCard(ctx context.Context, id string) (*models.Card, error)
	GetCardsByIDs(ctx context.Context, ids []string) (map[string]*models.Card, error)

	LatestPrice(ctx context.Context, cardID, source string) (*models.CardPrice, error)
	PricesForCard(ctx context.Context, cardID string) ([]*models.CardPrice, error)
	PricesSince(ctx context.Context, since time.Time) ([]*models.CardPrice, error)
	LatestPricePerCard(ctx context.Context) ([]*models.CardPrice, error)
}

// Recorder receives measurements of the derived view computations.
type Recorder interface {
	ObserveCompute(operation string, d time.Duration)
	SetMatrixLeaders(n int)
	SetMovers(gainers, losers int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCompute(string, time.Duration) {}
func (nopRecorder) SetMatrixLeaders(int)                 {}
func (nopRecorder) SetMovers(int, int)                   {}

// Options configures the service.
type Options struct {
	// SourceOrder lists known price sources in display order.
	SourceOrder []string

	// LookupConcurrency bounds parallel price lookups during deck valuation.
	// Default: 8
	LookupConcurrency int

	// Now returns the current time. Default: time.Now
	Now func() time.Time

	// Recorder receives computation metrics. Default: discards them
	Recorder Recorder
}

// Service composes the derived views over a Store.
type Service struct {
	store       Store
	log         *logger.Logger
	sourceOrder []string
	concurrency int
	now         func() time.Time
	rec         Recorder
}

// NewService creates a new metagame service.
func NewService(store Store, log *logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if opts.LookupConcurrency <= 0 {
		opts.LookupConcurrency = 8
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.SourceOrder) == 0 {
		opts.SourceOrder = []string{models.SourceTCGPlayer, models.SourceCardmarket}
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	return &Service{
		store:       store,
		log:         log.With("component", "metagame"),
		sourceOrder: opts.SourceOrder,
		concurrency: opts.LookupConcurrency,
		now:         opts.Now,
		rec:         opts.Recorder,
	}
}

// DeckWithCost is a deck with its valuation and leader summary.
type DeckWithCost struct {
	models.Deck
	DeckValuation
	LeaderName  *string `json:"leader_name"`
	LeaderColor *string `json:"leader_color"`
}

// DeckDetailed is a deck with its full card list for the deck viewer.
type DeckDetailed struct {
	models.Deck
	DeckDetail
	LeaderName     *string `json:"leader_name"`
	LeaderColor    *string `json:"leader_color"`
	LeaderImageURL *string `json:"leader_image_url"`
}

// TierList returns all leaders ranked by the aggregated win rate of their decks.
func (s *Service) TierList(ctx context.Context) ([]*LeaderStats, error) {
	leaders, err := s.store.ListLeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaders: %w", err)
	}
	decks, err := s.store.ListAllDecks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	start := time.Now()
	tiers := BuildTierList(leaders, decks)
	s.rec.ObserveCompute("tier_list", time.Since(start))
	return tiers, nil
}

// Matrix returns the full matchup matrix.
func (s *Service) Matrix(ctx context.Context) (*MatchupMatrix, error) {
	leaders, err := s.store.ListLeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaders: %w", err)
	}
	matchups, err := s.store.ListMatchups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matchups: %w", err)
	}

	start := time.Now()
	matrix := BuildMatrix(leaders, matchups)
	elapsed := time.Since(start)
	s.rec.ObserveCompute("matrix", elapsed)
	s.rec.SetMatrixLeaders(len(matrix.Leaders))
	s.log.Debug("built matchup matrix",
		"leaders", len(matrix.Leaders),
		"matchups", len(matchups),
		"duration", elapsed,
	)
	return matrix, nil
}

// Matchup resolves one ordered pair, deriving it from the reverse record when
// only that one is stored. It returns nil when either leader is unknown or
// neither direction exists.
func (s *Service) Matchup(ctx context.Context, leaderA, leaderB string) (*MatchupCell, error) {
	for _, id := range []string{leaderA, leaderB} {
		leader, err := s.store.GetLeader(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get leader %s: %w", id, err)
		}
		if leader == nil {
			return nil, nil
		}
	}

	matchups, err := s.store.MatchupsForLeader(ctx, leaderA)
	if err != nil {
		return nil, fmt.Errorf("failed to get matchups for leader %s: %w", leaderA, err)
	}
	return LookupMatchup(leaderA, leaderB, matchups), nil
}

// DeckWithCost returns a deck with its total cost and per-card breakdown, or nil
// if the deck does not exist.
func (s *Service) DeckWithCost(ctx context.Context, deckID int64) (*DeckWithCost, error) {
	deck, err := s.store.GetDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	if deck == nil {
		return nil, nil
	}

	entries := s.parseDeckList(deck)
	latest, err := s.latestPrices(ctx, CardIDs(entries))
	if err != nil {
		return nil, err
	}

	out := &DeckWithCost{
		Deck:          *deck,
		DeckValuation: *ValueDeck(deck, latest),
	}

	leader, err := s.store.GetLeader(ctx, deck.LeaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get leader: %w", err)
	}
	if leader != nil {
		out.LeaderName = models.String(leader.Name)
		out.LeaderColor = models.String(leader.Color)
	}
	return out, nil
}

// DeckDetailed returns a deck with enriched cards and its cost curve, or nil if
// the deck does not exist.
func (s *Service) DeckDetailed(ctx context.Context, deckID int64) (*DeckDetailed, error) {
	deck, err := s.store.GetDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	if deck == nil {
		return nil, nil
	}

	ids := CardIDs(s.parseDeckList(deck))

	latest, err := s.latestPrices(ctx, ids)
	if err != nil {
		return nil, err
	}
	cards, err := s.store.GetCardsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck cards: %w", err)
	}

	out := &DeckDetailed{
		Deck:       *deck,
		DeckDetail: *DetailDeck(deck, cards, latest),
	}

	leader, err := s.store.GetLeader(ctx, deck.LeaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get leader: %w", err)
	}
	if leader != nil {
		out.LeaderName = models.String(leader.Name)
		out.LeaderColor = models.String(leader.Color)
		out.LeaderImageURL = leader.ImageURL
	}
	return out, nil
}

// parseDeckList parses a deck's list and logs when it is malformed.
func (s *Service) parseDeckList(deck *models.Deck) []DeckEntry {
	entries := ParseDeckList(deck.DeckListJSON)
	if entries == nil && deck.DeckListJSON != nil && strings.TrimSpace(*deck.DeckListJSON) != "" {
		s.log.Warn("ignoring malformed deck list", "deck_id", deck.ID)
	}
	return entries
}

// latestPrices resolves the latest price row of each card concurrently.
// Cards without any price are absent from the result.
func (s *Service) latestPrices(ctx context.Context, cardIDs []string) (map[string]*models.CardPrice, error) {
	latest := make(map[string]*models.CardPrice, len(cardIDs))
	if len(cardIDs) == 0 {
		return latest, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, cardID := range cardIDs {
		cardID := cardID
		g.Go(func() error {
			price, err := s.store.LatestPrice(gctx, cardID, "")
			if err != nil {
				return fmt.Errorf("failed to get latest price for %s: %w", cardID, err)
			}
			if price == nil {
				return nil
			}
			mu.Lock()
			latest[cardID] = price
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return latest, nil
}

// LatestPrice returns the most recent price of a card, optionally for one source.
func (s *Service) LatestPrice(ctx context.Context, cardID, source string) (*models.CardPrice, error) {
	history, err := s.store.PricesForCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", cardID, err)
	}
	return LatestPrice(history, source), nil
}

// PriceHistory returns the card's price samples of the last days days, oldest
// first.
func (s *Service) PriceHistory(ctx context.Context, cardID string, days int) ([]*models.CardPrice, error) {
	history, err := s.store.PricesForCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", cardID, err)
	}
	return PriceHistory(history, days, s.now()), nil
}

// TopMovers returns the cards with the largest relative price change over the
// last days days.
func (s *Service) TopMovers(ctx context.Context, days, limit int) (*Movers, error) {
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)

	cards, err := s.store.ListAllCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	window, err := s.store.PricesSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices since %s: %w", cutoff.Format(time.RFC3339), err)
	}
	newest, err := s.store.LatestPricePerCard(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest prices: %w", err)
	}

	start := time.Now()
	movers := TopMovers(cards, OldestPerCard(window), NewestPerCard(newest), limit)
	s.rec.ObserveCompute("movers", time.Since(start))
	s.rec.SetMovers(len(movers.Gainers), len(movers.Losers))
	s.log.Debug("computed price movers",
		"days", days,
		"cards", len(cards),
		"window_rows", len(window),
		"gainers", len(movers.Gainers),
		"losers", len(movers.Losers),
	)
	return movers, nil
}

// ComparePrices returns the latest price of a card on each known market.
func (s *Service) ComparePrices(ctx context.Context, cardID string) (*PriceComparison, error) {
	history, err := s.store.PricesForCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", cardID, err)
	}
	return ComparePrices(history), nil
}

// CardWithPrices returns a card with its latest price per source, or nil if the
// card does not exist.
func (s *Service) CardWithPrices(ctx context.Context, cardID string) (*CardWithPrices, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if card == nil {
		return nil, nil
	}
	history, err := s.store.PricesForCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", cardID, err)
	}
	return BuildCardWithPrices(card, history, s.sourceOrder), nil
}
