// Package postgres is the production store implementation. Wallet rows are
// locked with SELECT ... FOR UPDATE inside each transaction so concurrent
// operations on the same wallet serialize.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"github.com/play4stakes/play4stakes/internal/challenge"
	"github.com/play4stakes/play4stakes/internal/store"
)

// Store implements store.Store over a Postgres database. Schema management
// lives in cmd/migrator; Open does not migrate.
type Store struct {
	db *sql.DB
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an existing connection pool; the caller keeps ownership of db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a transaction. It commits if fn returns nil,
// otherwise it rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(&pgTx{tx: tx})
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return fmt.Errorf("rollback after fn error: %v (fn err: %w)", rbErr, err)
		}
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBalance returns the user's balance (no locks; suitable for the GET
// endpoint).
func (s *Store) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64

	err := s.db.QueryRowContext(ctx, `
		SELECT balance
		FROM wallets
		WHERE user_id = $1
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrWalletNotFound
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetChallenge reads a challenge snapshot without locking.
func (s *Store) GetChallenge(ctx context.Context, code string) (*challenge.Challenge, error) {
	row := s.db.QueryRowContext(ctx, selectChallenge+` WHERE code = $1`, code)
	return scanChallenge(row)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type pgTx struct {
	tx *sql.Tx
}

var _ store.Tx = (*pgTx)(nil)
