package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// DeckRepository handles database operations for decks.
type DeckRepository interface {
	// Upsert merges the deck into the stored record with the same leader and
	// source URL, or inserts it. It returns the stored result with its ID set.
	Upsert(ctx context.Context, deck *models.Deck) (*models.Deck, error)

	// GetByID retrieves a deck by its ID.
	GetByID(ctx context.Context, id int64) (*models.Deck, error)

	// List retrieves a page of decks, most played first.
	List(ctx context.Context, limit, offset int) ([]*models.Deck, error)

	// ListAll retrieves every deck.
	ListAll(ctx context.Context) ([]*models.Deck, error)

	// GetByLeader retrieves all decks of a leader, highest win rate first.
	GetByLeader(ctx context.Context, leaderID string) ([]*models.Deck, error)

	// MostPlayed retrieves the decks with the most games.
	MostPlayed(ctx context.Context, limit int) ([]*models.Deck, error)

	// MostSuccessful retrieves the decks with the highest win rate among those
	// with at least minGames games.
	MostSuccessful(ctx context.Context, minGames, limit int) ([]*models.Deck, error)
}

type deckRepository struct {
	db Querier
}

// NewDeckRepository creates a new deck repository.
func NewDeckRepository(db Querier) DeckRepository {
	return &deckRepository{db: db}
}

const deckColumns = `
	id, leader_id, deck_list_json, win_rate, games_played,
	first_win_rate, second_win_rate, tier, source_url,
	created_at, updated_at`

func scanDeck(row rowScanner) (*models.Deck, error) {
	deck := &models.Deck{}
	err := row.Scan(
		&deck.ID,
		&deck.LeaderID,
		&deck.DeckListJSON,
		&deck.WinRate,
		&deck.GamesPlayed,
		&deck.FirstWinRate,
		&deck.SecondWinRate,
		&deck.Tier,
		&deck.SourceURL,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return deck, nil
}

func (r *deckRepository) queryDecks(ctx context.Context, query string, args ...any) ([]*models.Deck, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	decks := []*models.Deck{}
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		decks = append(decks, deck)
	}
	return decks, rows.Err()
}

// findByNaturalKey looks a deck up by leader and source URL. A nil source URL
// matches the leader's deck without one.
func (r *deckRepository) findByNaturalKey(ctx context.Context, leaderID string, sourceURL *string) (*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks WHERE leader_id = ? AND source_url IS ? ORDER BY id DESC LIMIT 1`

	deck, err := scanDeck(r.db.QueryRowContext(ctx, query, leaderID, sourceURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find deck: %w", err)
	}
	return deck, nil
}

// Upsert merges the deck into the stored record with the same natural key, or inserts it.
func (r *deckRepository) Upsert(ctx context.Context, deck *models.Deck) (*models.Deck, error) {
	if deck == nil || deck.LeaderID == "" {
		return nil, fmt.Errorf("deck leader id is required")
	}

	existing, err := r.findByNaturalKey(ctx, deck.LeaderID, deck.SourceURL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	merged := models.MergeDeck(existing, deck)
	stampTimes(&merged.CreatedAt, &merged.UpdatedAt, now)

	if existing == nil {
		query := `
			INSERT INTO decks (
				leader_id, deck_list_json, win_rate, games_played,
				first_win_rate, second_win_rate, tier, source_url,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		result, err := r.db.ExecContext(ctx, query,
			merged.LeaderID,
			merged.DeckListJSON,
			merged.WinRate,
			merged.GamesPlayed,
			merged.FirstWinRate,
			merged.SecondWinRate,
			merged.Tier,
			merged.SourceURL,
			utc(merged.CreatedAt),
			utc(merged.UpdatedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create deck: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get deck id: %w", err)
		}
		merged.ID = id
		return merged, nil
	}

	if deck.UpdatedAt.IsZero() {
		merged.UpdatedAt = now
	}

	query := `
		UPDATE decks
		SET deck_list_json = ?, win_rate = ?, games_played = ?,
		    first_win_rate = ?, second_win_rate = ?, tier = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		merged.DeckListJSON,
		merged.WinRate,
		merged.GamesPlayed,
		merged.FirstWinRate,
		merged.SecondWinRate,
		merged.Tier,
		utc(merged.UpdatedAt),
		merged.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update deck %d: %w", merged.ID, err)
	}
	return merged, nil
}

// GetByID retrieves a deck by its ID.
func (r *deckRepository) GetByID(ctx context.Context, id int64) (*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks WHERE id = ?`

	deck, err := scanDeck(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck by id: %w", err)
	}
	return deck, nil
}

// List retrieves a page of decks, most played first.
func (r *deckRepository) List(ctx context.Context, limit, offset int) ([]*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks ORDER BY games_played DESC, id ASC LIMIT ? OFFSET ?`

	decks, err := r.queryDecks(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return decks, nil
}

// ListAll retrieves every deck.
func (r *deckRepository) ListAll(ctx context.Context) ([]*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks ORDER BY id`

	decks, err := r.queryDecks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list all decks: %w", err)
	}
	return decks, nil
}

// GetByLeader retrieves all decks of a leader, highest win rate first.
func (r *deckRepository) GetByLeader(ctx context.Context, leaderID string) ([]*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks WHERE leader_id = ? ORDER BY win_rate DESC, id ASC`

	decks, err := r.queryDecks(ctx, query, leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get decks for leader %s: %w", leaderID, err)
	}
	return decks, nil
}

// MostPlayed retrieves the decks with the most games.
func (r *deckRepository) MostPlayed(ctx context.Context, limit int) ([]*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks ORDER BY games_played DESC, id ASC LIMIT ?`

	decks, err := r.queryDecks(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get most played decks: %w", err)
	}
	return decks, nil
}

// MostSuccessful retrieves the highest win rate decks with at least minGames games.
func (r *deckRepository) MostSuccessful(ctx context.Context, minGames, limit int) ([]*models.Deck, error) {
	query := `
		SELECT ` + deckColumns + `
		FROM decks
		WHERE games_played >= ?
		ORDER BY win_rate DESC, games_played DESC, id ASC
		LIMIT ?
	`

	decks, err := r.queryDecks(ctx, query, minGames, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get most successful decks: %w", err)
	}
	return decks, nil
}
