package storage

import (
	"context"
	"time"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// Service provides read access to persisted metagame data. It satisfies
// metagame.Store and adds the catalog queries served by the API.
type Service struct {
	db    *DB
	repos *Repositories
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:    db,
		repos: NewRepositories(db.Conn()),
	}
}

// DB returns the underlying database.
func (s *Service) DB() *DB {
	return s.db
}

// Update runs fn with repositories bound to one transaction.
func (s *Service) Update(ctx context.Context, fn func(*Repositories) error) error {
	return s.db.WithRepositories(ctx, fn)
}

// Leaders

func (s *Service) ListLeaders(ctx context.Context) ([]*models.Leader, error) {
	return s.repos.Leaders.List(ctx)
}

func (s *Service) GetLeader(ctx context.Context, id string) (*models.Leader, error) {
	return s.repos.Leaders.GetByID(ctx, id)
}

// Decks

func (s *Service) ListDecks(ctx context.Context, limit, offset int) ([]*models.Deck, error) {
	return s.repos.Decks.List(ctx, limit, offset)
}

func (s *Service) ListAllDecks(ctx context.Context) ([]*models.Deck, error) {
	return s.repos.Decks.ListAll(ctx)
}

func (s *Service) GetDeck(ctx context.Context, id int64) (*models.Deck, error) {
	return s.repos.Decks.GetByID(ctx, id)
}

func (s *Service) DecksByLeader(ctx context.Context, leaderID string) ([]*models.Deck, error) {
	return s.repos.Decks.GetByLeader(ctx, leaderID)
}

func (s *Service) MostPlayedDecks(ctx context.Context, limit int) ([]*models.Deck, error) {
	return s.repos.Decks.MostPlayed(ctx, limit)
}

func (s *Service) MostSuccessfulDecks(ctx context.Context, minGames, limit int) ([]*models.Deck, error) {
	return s.repos.Decks.MostSuccessful(ctx, minGames, limit)
}

// Matchups

func (s *Service) ListMatchups(ctx context.Context) ([]*models.Matchup, error) {
	return s.repos.Matchups.List(ctx)
}

func (s *Service) MatchupsForLeader(ctx context.Context, leaderID string) ([]*models.Matchup, error) {
	return s.repos.Matchups.GetByLeader(ctx, leaderID)
}

// Cards

func (s *Service) ListCards(ctx context.Context, limit, offset int) ([]*models.Card, error) {
	return s.repos.Cards.List(ctx, limit, offset)
}

func (s *Service) ListAllCards(ctx context.Context) ([]*models.Card, error) {
	return s.repos.Cards.ListAll(ctx)
}

func (s *Service) GetCard(ctx context.Context, id string) (*models.Card, error) {
	return s.repos.Cards.GetByID(ctx, id)
}

func (s *Service) GetCardsByIDs(ctx context.Context, ids []string) (map[string]*models.Card, error) {
	return s.repos.Cards.GetByIDs(ctx, ids)
}

func (s *Service) SearchCards(ctx context.Context, query string, limit int) ([]*models.Card, error) {
	return s.repos.Cards.Search(ctx, query, limit)
}

func (s *Service) CardsBySet(ctx context.Context, setCode string) ([]*models.Card, error) {
	return s.repos.Cards.GetBySet(ctx, setCode)
}

func (s *Service) CardsByRarity(ctx context.Context, rarity string) ([]*models.Card, error) {
	return s.repos.Cards.GetByRarity(ctx, rarity)
}

// Prices

func (s *Service) LatestPrice(ctx context.Context, cardID, source string) (*models.CardPrice, error) {
	return s.repos.Prices.Latest(ctx, cardID, source)
}

func (s *Service) PricesForCard(ctx context.Context, cardID string) ([]*models.CardPrice, error) {
	return s.repos.Prices.ForCard(ctx, cardID)
}

func (s *Service) PricesSince(ctx context.Context, since time.Time) ([]*models.CardPrice, error) {
	return s.repos.Prices.Since(ctx, since)
}

func (s *Service) LatestPricePerCard(ctx context.Context) ([]*models.CardPrice, error) {
	return s.repos.Prices.LatestPerCard(ctx)
}

// Close closes the database connection.
func (s *Service) Close() error {
	return s.db.Close()
}
