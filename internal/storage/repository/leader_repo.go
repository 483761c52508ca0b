package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// LeaderRepository handles database operations for leaders.
type LeaderRepository interface {
	// Upsert merges the leader into the stored record with the same ID, or
	// inserts it. It returns the stored result.
	Upsert(ctx context.Context, leader *models.Leader) (*models.Leader, error)

	// GetByID retrieves a leader by its ID.
	GetByID(ctx context.Context, id string) (*models.Leader, error)

	// List retrieves all leaders ordered by ID.
	List(ctx context.Context) ([]*models.Leader, error)
}

type leaderRepository struct {
	db Querier
}

// NewLeaderRepository creates a new leader repository.
func NewLeaderRepository(db Querier) LeaderRepository {
	return &leaderRepository{db: db}
}

const leaderColumns = `id, name, color, image_url, created_at, updated_at`

func scanLeader(row rowScanner) (*models.Leader, error) {
	leader := &models.Leader{}
	err := row.Scan(
		&leader.ID,
		&leader.Name,
		&leader.Color,
		&leader.ImageURL,
		&leader.CreatedAt,
		&leader.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return leader, nil
}

// Upsert merges the leader into the stored record with the same ID, or inserts it.
func (r *leaderRepository) Upsert(ctx context.Context, leader *models.Leader) (*models.Leader, error) {
	if leader == nil || leader.ID == "" {
		return nil, fmt.Errorf("leader id is required")
	}

	existing, err := r.GetByID(ctx, leader.ID)
	if err != nil {
		return nil, err
	}

	merged := models.MergeLeader(existing, leader)
	stampTimes(&merged.CreatedAt, &merged.UpdatedAt, time.Now())
	if existing != nil && leader.UpdatedAt.IsZero() {
		merged.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO leaders (` + leaderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		merged.ID,
		merged.Name,
		merged.Color,
		merged.ImageURL,
		utc(merged.CreatedAt),
		utc(merged.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert leader %s: %w", leader.ID, err)
	}

	return merged, nil
}

// GetByID retrieves a leader by its ID.
func (r *leaderRepository) GetByID(ctx context.Context, id string) (*models.Leader, error) {
	query := `SELECT ` + leaderColumns + ` FROM leaders WHERE id = ?`

	leader, err := scanLeader(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leader by id: %w", err)
	}
	return leader, nil
}

// List retrieves all leaders ordered by ID.
func (r *leaderRepository) List(ctx context.Context) ([]*models.Leader, error) {
	query := `SELECT ` + leaderColumns + ` FROM leaders ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	leaders := []*models.Leader{}
	for rows.Next() {
		leader, err := scanLeader(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leader: %w", err)
		}
		leaders = append(leaders, leader)
	}
	return leaders, rows.Err()
}
