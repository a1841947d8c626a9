// Package store defines the persistence boundary of the engine: wallet
// balances, challenge records and the ledger audit trail, all mutated
// through explicit transactions so a wallet debit and its matching
// challenge-field update land as one atomic unit.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/play4stakes/play4stakes/internal/challenge"
)

var (
	ErrNotFound          = errors.New("challenge not found")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCodeTaken         = errors.New("challenge code taken")
	ErrDuplicateEntry    = errors.New("duplicate ledger entry")
)

// Store is the injected persistence collaborator. Implementations must
// guarantee that everything done inside WithTx commits or rolls back as a
// whole, and that concurrent transactions touching the same wallet or
// challenge serialize against each other.
type Store interface {
	// WithTx runs fn inside a transaction. It commits if fn returns nil,
	// otherwise it rolls back and returns fn's error.
	WithTx(ctx context.Context, fn func(Tx) error) error

	// GetBalance reads a balance without locking; suitable for read-only
	// endpoints. Returns ErrWalletNotFound for unknown users.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// GetChallenge reads a challenge snapshot without locking. The code must
	// already be normalized. Returns ErrNotFound for unknown codes.
	GetChallenge(ctx context.Context, code string) (*challenge.Challenge, error)

	Close() error
}

// Tx is one transactional critical section over the store.
type Tx interface {
	// EnsureWallet creates the wallet with the opening balance if it does not
	// exist, reporting whether it was created.
	EnsureWallet(userID string, opening int64) (created bool, err error)

	// LockAndGetBalance reads a balance under a write lock held until the
	// transaction ends. Returns ErrWalletNotFound for unknown users.
	LockAndGetBalance(userID string) (int64, error)

	// Credit adds amount to a wallet. Amount must be positive.
	Credit(userID string, amount int64) error

	// Debit subtracts amount from a wallet. The non-negative-balance
	// invariant is enforced here: a debit that would overdraw returns
	// ErrInsufficientFunds and changes nothing.
	Debit(userID string, amount int64) error

	// GetChallenge reads a challenge for update. Returns ErrNotFound for
	// unknown codes.
	GetChallenge(code string) (*challenge.Challenge, error)

	// InsertChallenge persists a new challenge. Returns ErrCodeTaken when the
	// code is already in use so the caller can regenerate and retry.
	InsertChallenge(ch *challenge.Challenge) error

	// UpdateChallenge overwrites the stored record for ch.Code.
	UpdateChallenge(ch *challenge.Challenge) error

	// ListExpired returns OPEN and FILLED challenges whose expiry lies at or
	// before now.
	ListExpired(now time.Time) ([]*challenge.Challenge, error)

	// AppendEntry records one fund movement in the ledger audit trail.
	// Returns ErrDuplicateEntry when the entry id was already recorded.
	AppendEntry(e Entry) error
}
