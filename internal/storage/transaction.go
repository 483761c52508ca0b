package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/OPTCG-Meta/internal/storage/repository"
)

// TxFunc is a function that runs within a transaction.
type TxFunc func(*sql.Tx) error

// WithTransaction executes fn within a database transaction. It commits when fn
// returns nil and rolls back otherwise. A panic in fn rolls back and is re-raised.
func (db *DB) WithTransaction(ctx context.Context, fn TxFunc) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(tx)
}

// Repositories groups the entity repositories bound to one connection or
// transaction.
type Repositories struct {
	Leaders  repository.LeaderRepository
	Decks    repository.DeckRepository
	Matchups repository.MatchupRepository
	Cards    repository.CardRepository
	Prices   repository.PriceRepository
}

// NewRepositories binds every repository to q.
func NewRepositories(q repository.Querier) *Repositories {
	return &Repositories{
		Leaders:  repository.NewLeaderRepository(q),
		Decks:    repository.NewDeckRepository(q),
		Matchups: repository.NewMatchupRepository(q),
		Cards:    repository.NewCardRepository(q),
		Prices:   repository.NewPriceRepository(q),
	}
}

// WithRepositories runs fn with repositories bound to a single transaction.
func (db *DB) WithRepositories(ctx context.Context, fn func(*Repositories) error) error {
	return db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(NewRepositories(tx))
	})
}
