package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// CardRepository handles database operations for the card catalog.
type CardRepository interface {
	// Upsert merges the card into the stored record with the same ID, or inserts it.
	Upsert(ctx context.Context, card *models.Card) (*models.Card, error)

	// GetByID retrieves a card by its ID.
	GetByID(ctx context.Context, id string) (*models.Card, error)

	// GetByIDs retrieves the cards with the given IDs, keyed by ID.
	// Unknown IDs are absent from the result.
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Card, error)

	// List retrieves a page of cards ordered by ID.
	List(ctx context.Context, limit, offset int) ([]*models.Card, error)

	// ListAll retrieves every card.
	ListAll(ctx context.Context) ([]*models.Card, error)

	// Search finds cards whose name contains query, case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]*models.Card, error)

	// GetBySet retrieves all cards of a set.
	GetBySet(ctx context.Context, setCode string) ([]*models.Card, error)

	// GetByRarity retrieves all cards of a rarity.
	GetByRarity(ctx context.Context, rarity string) ([]*models.Card, error)
}

type cardRepository struct {
	db Querier
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db Querier) CardRepository {
	return &cardRepository{db: db}
}

const cardColumns = `
	id, name, set_code, rarity, card_type, color, cost, power, image_url,
	created_at, updated_at`

// maxIDsPerQuery keeps IN lists below SQLite's bound parameter limit.
const maxIDsPerQuery = 500

func scanCard(row rowScanner) (*models.Card, error) {
	card := &models.Card{}
	err := row.Scan(
		&card.ID,
		&card.Name,
		&card.SetCode,
		&card.Rarity,
		&card.CardType,
		&card.Color,
		&card.Cost,
		&card.Power,
		&card.ImageURL,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (r *cardRepository) queryCards(ctx context.Context, query string, args ...any) ([]*models.Card, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cards := []*models.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// Upsert merges the card into the stored record with the same ID, or inserts it.
func (r *cardRepository) Upsert(ctx context.Context, card *models.Card) (*models.Card, error) {
	if card == nil || card.ID == "" {
		return nil, fmt.Errorf("card id is required")
	}

	existing, err := r.GetByID(ctx, card.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	merged := models.MergeCard(existing, card)
	stampTimes(&merged.CreatedAt, &merged.UpdatedAt, now)
	if existing != nil && card.UpdatedAt.IsZero() {
		merged.UpdatedAt = now
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			set_code = excluded.set_code,
			rarity = excluded.rarity,
			card_type = excluded.card_type,
			color = excluded.color,
			cost = excluded.cost,
			power = excluded.power,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		merged.ID,
		merged.Name,
		merged.SetCode,
		merged.Rarity,
		merged.CardType,
		merged.Color,
		merged.Cost,
		merged.Power,
		merged.ImageURL,
		utc(merged.CreatedAt),
		utc(merged.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert card %s: %w", card.ID, err)
	}

	return merged, nil
}

// GetByID retrieves a card by its ID.
func (r *cardRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = ?`

	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card by id: %w", err)
	}
	return card, nil
}

// GetByIDs retrieves the cards with the given IDs, keyed by ID.
func (r *cardRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Card, error) {
	result := make(map[string]*models.Card, len(ids))

	for start := 0; start < len(ids); start += maxIDsPerQuery {
		end := start + maxIDsPerQuery
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		query := `SELECT ` + cardColumns + ` FROM cards WHERE id IN (` + placeholders + `)`
		cards, err := r.queryCards(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to get cards by ids: %w", err)
		}
		for _, card := range cards {
			result[card.ID] = card
		}
	}

	return result, nil
}

// List retrieves a page of cards ordered by ID.
func (r *cardRepository) List(ctx context.Context, limit, offset int) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY id LIMIT ? OFFSET ?`

	cards, err := r.queryCards(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

// ListAll retrieves every card.
func (r *cardRepository) ListAll(ctx context.Context) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY id`

	cards, err := r.queryCards(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list all cards: %w", err)
	}
	return cards, nil
}

// Search finds cards whose name contains query, case-insensitively.
// LIKE wildcards in query match literally.
func (r *cardRepository) Search(ctx context.Context, query string, limit int) ([]*models.Card, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)

	sqlQuery := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY name, id
		LIMIT ?
	`

	cards, err := r.queryCards(ctx, sqlQuery, "%"+escaped+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search cards: %w", err)
	}
	return cards, nil
}

// GetBySet retrieves all cards of a set.
func (r *cardRepository) GetBySet(ctx context.Context, setCode string) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE set_code = ? ORDER BY id`

	cards, err := r.queryCards(ctx, query, setCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for set %s: %w", setCode, err)
	}
	return cards, nil
}

// GetByRarity retrieves all cards of a rarity.
func (r *cardRepository) GetByRarity(ctx context.Context, rarity string) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE rarity = ? ORDER BY id`

	cards, err := r.queryCards(ctx, query, rarity)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for rarity %s: %w", rarity, err)
	}
	return cards, nil
}
