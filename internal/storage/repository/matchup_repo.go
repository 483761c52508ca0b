package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/models"
)

// MatchupRepository handles database operations for head-to-head matchups.
type MatchupRepository interface {
	// Upsert merges the matchup into the stored record for the pair, in
	// whichever direction it is stored, or inserts it. Only one direction is
	// ever stored per pair.
	Upsert(ctx context.Context, matchup *models.Matchup) (*models.Matchup, error)

	// GetPair retrieves the record stored for the ordered pair (a, b).
	GetPair(ctx context.Context, leaderA, leaderB string) (*models.Matchup, error)

	// List retrieves all matchups.
	List(ctx context.Context) ([]*models.Matchup, error)

	// GetByLeader retrieves all matchups involving the leader on either side.
	GetByLeader(ctx context.Context, leaderID string) ([]*models.Matchup, error)
}

type matchupRepository struct {
	db Querier
}

// NewMatchupRepository creates a new matchup repository.
func NewMatchupRepository(db Querier) MatchupRepository {
	return &matchupRepository{db: db}
}

const matchupColumns = `
	id, leader_a_id, leader_b_id, win_rate_a, sample_size,
	first_win_rate, second_win_rate, created_at, updated_at`

func scanMatchup(row rowScanner) (*models.Matchup, error) {
	m := &models.Matchup{}
	err := row.Scan(
		&m.ID,
		&m.LeaderAID,
		&m.LeaderBID,
		&m.WinRateA,
		&m.SampleSize,
		&m.FirstWinRate,
		&m.SecondWinRate,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *matchupRepository) queryMatchups(ctx context.Context, query string, args ...any) ([]*models.Matchup, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	matchups := []*models.Matchup{}
	for rows.Next() {
		m, err := scanMatchup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matchup: %w", err)
		}
		matchups = append(matchups, m)
	}
	return matchups, rows.Err()
}

// Upsert merges the matchup into the stored record for the pair. A record for
// (b, a) arriving when (a, b) is stored is reversed into the stored
// orientation first.
func (r *matchupRepository) Upsert(ctx context.Context, matchup *models.Matchup) (*models.Matchup, error) {
	if matchup == nil || matchup.LeaderAID == "" || matchup.LeaderBID == "" {
		return nil, fmt.Errorf("matchup leader ids are required")
	}

	existing, err := r.GetPair(ctx, matchup.LeaderAID, matchup.LeaderBID)
	if err != nil {
		return nil, err
	}
	if existing == nil && matchup.LeaderAID != matchup.LeaderBID {
		reverse, err := r.GetPair(ctx, matchup.LeaderBID, matchup.LeaderAID)
		if err != nil {
			return nil, err
		}
		if reverse != nil {
			existing = reverse
			matchup = models.ReverseMatchup(matchup)
		}
	}

	now := time.Now()
	merged := models.MergeMatchup(existing, matchup)
	stampTimes(&merged.CreatedAt, &merged.UpdatedAt, now)
	if existing != nil && matchup.UpdatedAt.IsZero() {
		merged.UpdatedAt = now
	}

	query := `
		INSERT INTO matchups (
			leader_a_id, leader_b_id, win_rate_a, sample_size,
			first_win_rate, second_win_rate, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(leader_a_id, leader_b_id) DO UPDATE SET
			win_rate_a = excluded.win_rate_a,
			sample_size = excluded.sample_size,
			first_win_rate = excluded.first_win_rate,
			second_win_rate = excluded.second_win_rate,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		merged.LeaderAID,
		merged.LeaderBID,
		merged.WinRateA,
		merged.SampleSize,
		merged.FirstWinRate,
		merged.SecondWinRate,
		utc(merged.CreatedAt),
		utc(merged.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert matchup %s vs %s: %w", matchup.LeaderAID, matchup.LeaderBID, err)
	}

	return r.GetPair(ctx, merged.LeaderAID, merged.LeaderBID)
}

// GetPair retrieves the record stored for the ordered pair (a, b).
func (r *matchupRepository) GetPair(ctx context.Context, leaderA, leaderB string) (*models.Matchup, error) {
	query := `SELECT ` + matchupColumns + ` FROM matchups WHERE leader_a_id = ? AND leader_b_id = ?`

	m, err := scanMatchup(r.db.QueryRowContext(ctx, query, leaderA, leaderB))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get matchup: %w", err)
	}
	return m, nil
}

// List retrieves all matchups.
func (r *matchupRepository) List(ctx context.Context) ([]*models.Matchup, error) {
	query := `SELECT ` + matchupColumns + ` FROM matchups ORDER BY id`

	matchups, err := r.queryMatchups(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list matchups: %w", err)
	}
	return matchups, nil
}

// GetByLeader retrieves all matchups involving the leader on either side.
func (r *matchupRepository) GetByLeader(ctx context.Context, leaderID string) ([]*models.Matchup, error) {
	query := `
		SELECT ` + matchupColumns + `
		FROM matchups
		WHERE leader_a_id = ? OR leader_b_id = ?
		ORDER BY id
	`

	matchups, err := r.queryMatchups(ctx, query, leaderID, leaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matchups for leader %s: %w", leaderID, err)
	}
	return matchups, nil
}
