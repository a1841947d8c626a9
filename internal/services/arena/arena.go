// Package arena is the escrow/settlement engine: it owns the challenge
// lifecycle, wallet movements and payout rules. Every mutating operation
// runs the full flow in a single store transaction:
//
//  1. Lock the wallet row(s) involved.
//  2. Guard-check the transition.
//  3. Apply wallet delta and challenge-field delta together.
//  4. Record ledger entries for the movement.
//
// so a failed guard leaves prior persisted state untouched.
package arena

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/play4stakes/play4stakes/internal/store"
)

const (
	// StarterBalance is granted once when an account is first provisioned.
	StarterBalance = 1000

	// DefaultTopUp is the coin amount of one top-up action.
	DefaultTopUp = 500

	// maxCodeAttempts bounds regeneration retries on code collision.
	maxCodeAttempts = 10
)

var (
	ErrInvalidStake  = errors.New("stake must be positive")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrUnknownGame   = errors.New("unknown game type")
	ErrInvalidRole   = errors.New("invalid role")
	ErrAlreadyFilled = errors.New("challenge already filled")
	ErrExpired       = errors.New("challenge expired")
	ErrNotAccepted   = errors.New("challenge not accepted by both sides")
)

// Service exposes the public operation surface of the engine.
type Service struct {
	store store.Store
	now   func() time.Time
}

// New returns a service over the given store.
func New(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// EnsureAccount provisions the wallet for a user id on first reference,
// granting the starter balance, and returns the current balance. Invoked
// once at session start; identity itself comes from the auth collaborator.
func (s *Service) EnsureAccount(ctx context.Context, userID string) (int64, error) {
	var balance int64

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		created, err := tx.EnsureWallet(userID, StarterBalance)
		if err != nil {
			return fmt.Errorf("ensure wallet: %w", err)
		}

		if created {
			err = tx.AppendEntry(store.Entry{
				ID:        uuid.NewString(),
				UserID:    userID,
				Amount:    StarterBalance,
				Kind:      store.EntryStarter,
				CreatedAt: s.now().UTC(),
			})
			if err != nil {
				return fmt.Errorf("record starter grant: %w", err)
			}
		}

		balance, err = tx.LockAndGetBalance(userID)
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ensure account: %w", err)
	}

	return balance, nil
}

// TopUp credits amount to the user's wallet and returns the new balance.
func (s *Service) TopUp(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.LockAndGetBalance(userID)
		if err != nil {
			return fmt.Errorf("lock wallet: %w", err)
		}

		err = tx.Credit(userID, amount)
		if err != nil {
			return fmt.Errorf("credit: %w", err)
		}

		err = tx.AppendEntry(store.Entry{
			ID:        uuid.NewString(),
			UserID:    userID,
			Amount:    amount,
			Kind:      store.EntryTopUp,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("record topup: %w", err)
		}

		balance = current + amount

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("top up: %w", err)
	}

	return balance, nil
}

// GetBalance returns the user's current balance.
func (s *Service) GetBalance(ctx context.Context, userID string) (int64, error) {
	balance, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}
