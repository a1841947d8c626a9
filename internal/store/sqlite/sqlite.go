// Package sqlite is the embedded store implementation. It backs local
// single-process deployments and the test suite; file-backed or in-memory
// via the standard sqlite DSN forms.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/play4stakes/play4stakes/internal/challenge"
	"github.com/play4stakes/play4stakes/internal/store"
)

// Store implements store.Store over a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases
	// from evaporating between pool connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS wallets (
			user_id TEXT PRIMARY KEY,
			balance INTEGER NOT NULL CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS challenges (
			code TEXT PRIMARY KEY,
			game_type TEXT NOT NULL,
			seed TEXT NOT NULL,
			stake INTEGER NOT NULL,
			status TEXT NOT NULL,
			creator_id TEXT NOT NULL DEFAULT '',
			opponent_id TEXT NOT NULL DEFAULT '',
			creator_accepted INTEGER NOT NULL DEFAULT 0,
			opponent_accepted INTEGER NOT NULL DEFAULT 0,
			escrowed_creator INTEGER NOT NULL DEFAULT 0,
			escrowed_opponent INTEGER NOT NULL DEFAULT 0,
			creator_raw_seconds REAL,
			creator_final_seconds REAL,
			creator_finished_ms INTEGER,
			opponent_raw_seconds REAL,
			opponent_final_seconds REAL,
			opponent_finished_ms INTEGER,
			created_ms INTEGER NOT NULL,
			expires_ms INTEGER NOT NULL,
			settled INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_status_expires
			ON challenges(status, expires_ms)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			kind TEXT NOT NULL,
			challenge_code TEXT NOT NULL DEFAULT '',
			created_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger_entries(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_challenge ON ledger_entries(challenge_code)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// WithTx runs fn inside a sqlite transaction, committing on nil and rolling
// back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(&sqliteTx{tx: tx})
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

// GetBalance reads a balance outside any transaction.
func (s *Store) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64

	err := s.db.QueryRowContext(ctx, `
		SELECT balance FROM wallets WHERE user_id = ?
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrWalletNotFound
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetChallenge reads a challenge snapshot outside any transaction.
func (s *Store) GetChallenge(ctx context.Context, code string) (*challenge.Challenge, error) {
	row := s.db.QueryRowContext(ctx, selectChallenge+` WHERE code = ?`, code)
	return scanChallenge(row)
}

func (s *Store) Close() error {
	return s.db.Close()
}
