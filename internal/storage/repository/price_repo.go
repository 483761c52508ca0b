package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// PriceRepository handles the append-only card price history.
type PriceRepository interface {
	// Insert appends a price sample and sets its ID. A zero FetchedAt is set to now.
	Insert(ctx context.Context, price *models.CardPrice) error

	// Latest retrieves the most recent sample of a card, optionally restricted
	// to one source. An empty source matches every source.
	Latest(ctx context.Context, cardID, source string) (*models.CardPrice, error)

	// ForCard retrieves every sample of a card, oldest first.
	ForCard(ctx context.Context, cardID string) ([]*models.CardPrice, error)

	// Since retrieves every sample fetched at or after since, oldest first.
	Since(ctx context.Context, since time.Time) ([]*models.CardPrice, error)

	// LatestPerCard retrieves the most recent sample of every priced card.
	LatestPerCard(ctx context.Context) ([]*models.CardPrice, error)
}

type priceRepository struct {
	db Querier
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(db Querier) PriceRepository {
	return &priceRepository{db: db}
}

const priceColumns = `
	id, card_id, source, price_usd, price_eur, market_price,
	low_price, high_price, fetched_at`

func scanPrice(row rowScanner) (*models.CardPrice, error) {
	p := &models.CardPrice{}
	err := row.Scan(
		&p.ID,
		&p.CardID,
		&p.Source,
		&p.PriceUSD,
		&p.PriceEUR,
		&p.MarketPrice,
		&p.LowPrice,
		&p.HighPrice,
		&p.FetchedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *priceRepository) queryPrices(ctx context.Context, query string, args ...any) ([]*models.CardPrice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	prices := []*models.CardPrice{}
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// Insert appends a price sample and sets its ID.
func (r *priceRepository) Insert(ctx context.Context, price *models.CardPrice) error {
	if price == nil || price.CardID == "" || price.Source == "" {
		return fmt.Errorf("card price requires a card id and a source")
	}
	if price.FetchedAt.IsZero() {
		price.FetchedAt = time.Now()
	}
	price.FetchedAt = utc(price.FetchedAt)

	query := `
		INSERT INTO card_prices (
			card_id, source, price_usd, price_eur, market_price,
			low_price, high_price, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		price.CardID,
		price.Source,
		price.PriceUSD,
		price.PriceEUR,
		price.MarketPrice,
		price.LowPrice,
		price.HighPrice,
		price.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price for %s: %w", price.CardID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get price id: %w", err)
	}
	price.ID = id
	return nil
}

// Latest retrieves the most recent sample of a card.
func (r *priceRepository) Latest(ctx context.Context, cardID, source string) (*models.CardPrice, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM card_prices
		WHERE card_id = ? AND (? = '' OR source = ?)
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1
	`

	p, err := scanPrice(r.db.QueryRowContext(ctx, query, cardID, source, source))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price for %s: %w", cardID, err)
	}
	return p, nil
}

// ForCard retrieves every sample of a card, oldest first.
func (r *priceRepository) ForCard(ctx context.Context, cardID string) ([]*models.CardPrice, error) {
	query := `SELECT ` + priceColumns + ` FROM card_prices WHERE card_id = ? ORDER BY fetched_at, id`

	prices, err := r.queryPrices(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", cardID, err)
	}
	return prices, nil
}

// Since retrieves every sample fetched at or after since, oldest first.
func (r *priceRepository) Since(ctx context.Context, since time.Time) ([]*models.CardPrice, error) {
	query := `SELECT ` + priceColumns + ` FROM card_prices WHERE fetched_at >= ? ORDER BY fetched_at, id`

	prices, err := r.queryPrices(ctx, query, utc(since))
	if err != nil {
		return nil, fmt.Errorf("failed to get prices since %s: %w", since.Format(time.RFC3339), err)
	}
	return prices, nil
}

// LatestPerCard retrieves the most recent sample of every priced card.
func (r *priceRepository) LatestPerCard(ctx context.Context) ([]*models.CardPrice, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM card_prices p
		WHERE p.id = (
			SELECT latest.id
			FROM card_prices latest
			WHERE latest.card_id = p.card_id
			ORDER BY latest.fetched_at DESC, latest.id DESC
			LIMIT 1
		)
		ORDER BY p.card_id
	`

	prices, err := r.queryPrices(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price per card: %w", err)
	}
	return prices, nil
}
