package arena

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/play4stakes/play4stakes/internal/challenge"
	"github.com/play4stakes/play4stakes/internal/games"
	"github.com/play4stakes/play4stakes/internal/store"
)

// CreateChallenge debits and escrows the creator's stake, then persists an
// OPEN challenge under a fresh code. The debit and the escrow field land in
// the same transaction; a failed guard leaves the wallet untouched.
func (s *Service) CreateChallenge(ctx context.Context, creatorID, gameType string, stake int64) (*challenge.Challenge, error) {
	if stake <= 0 {
		return nil, ErrInvalidStake
	}
	if _, ok := games.Get(gameType); !ok {
		return nil, ErrUnknownGame
	}

	now := s.now().UTC()
	ch := &challenge.Challenge{
		Code:            challenge.NewCode(),
		GameType:        gameType,
		Seed:            challenge.NewSeed(),
		Stake:           stake,
		Status:          challenge.StatusOpen,
		CreatorID:       creatorID,
		CreatorAccepted: true,
		EscrowedCreator: stake,
		CreatedAt:       now,
		ExpiresAt:       now.Add(challenge.TTL),
	}

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		balance, err := tx.LockAndGetBalance(creatorID)
		if err != nil {
			return fmt.Errorf("lock creator wallet: %w", err)
		}
		if balance < stake {
			return store.ErrInsufficientFunds
		}

		err = tx.Debit(creatorID, stake)
		if err != nil {
			return fmt.Errorf("escrow creator stake: %w", err)
		}

		for attempt := 1; ; attempt++ {
			err = tx.InsertChallenge(ch)
			if err == nil {
				break
			}
			if !errors.Is(err, store.ErrCodeTaken) || attempt >= maxCodeAttempts {
				return fmt.Errorf("persist challenge: %w", err)
			}
			ch.Code = challenge.NewCode()
		}

		err = tx.AppendEntry(store.Entry{
			ID:            uuid.NewString(),
			UserID:        creatorID,
			Amount:        -stake,
			Kind:          store.EntryEscrow,
			ChallengeCode: ch.Code,
			CreatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("record escrow: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}

	return ch, nil
}

// AcceptChallenge escrows the opponent's stake and moves the challenge to
// FILLED. Re-acceptance by the same opponent is a benign no-op re-read.
func (s *Service) AcceptChallenge(ctx context.Context, code, opponentID string) (*challenge.Challenge, error) {
	code = challenge.NormalizeCode(code)
	now := s.now().UTC()

	var ch *challenge.Challenge

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		ch, err = tx.GetChallenge(code)
		if err != nil {
			return fmt.Errorf("load challenge: %w", err)
		}

		// The bound opponent's retry stays a benign re-read even once the
		// record has aged out, so the expiry check comes second.
		switch ch.Status {
		case challenge.StatusFilled, challenge.StatusComplete:
			if ch.OpponentID == opponentID {
				return nil // idempotent re-read
			}
			return ErrAlreadyFilled
		case challenge.StatusOpen:
			// proceed
		default:
			return ErrExpired
		}

		if ch.ExpiredAt(now) {
			return ErrExpired
		}

		balance, err := tx.LockAndGetBalance(opponentID)
		if err != nil {
			return fmt.Errorf("lock opponent wallet: %w", err)
		}
		if balance < ch.Stake {
			return store.ErrInsufficientFunds
		}

		err = tx.Debit(opponentID, ch.Stake)
		if err != nil {
			return fmt.Errorf("escrow opponent stake: %w", err)
		}

		ch.OpponentID = opponentID
		ch.OpponentAccepted = true
		ch.EscrowedOpponent = ch.Stake
		ch.Status = challenge.StatusFilled

		err = tx.UpdateChallenge(ch)
		if err != nil {
			return fmt.Errorf("persist acceptance: %w", err)
		}

		err = tx.AppendEntry(store.Entry{
			ID:            uuid.NewString(),
			UserID:        opponentID,
			Amount:        -ch.Stake,
			Kind:          store.EntryEscrow,
			ChallengeCode: ch.Code,
			CreatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("record escrow: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("accept challenge: %w", err)
	}

	return ch, nil
}

// SubmitResult records one side's completion. The first submission per role
// wins; later submissions for an already-recorded role are silently ignored.
// When both results are present the challenge completes and settles in the
// same transaction.
func (s *Service) SubmitResult(ctx context.Context, code string, role challenge.Role, res challenge.Result) (*challenge.Challenge, error) {
	if role != challenge.RoleCreator && role != challenge.RoleOpponent {
		return nil, ErrInvalidRole
	}

	code = challenge.NormalizeCode(code)
	now := s.now().UTC()

	var ch *challenge.Challenge

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		ch, err = tx.GetChallenge(code)
		if err != nil {
			return fmt.Errorf("load challenge: %w", err)
		}

		if ch.ExpiredAt(now) {
			return ErrExpired
		}
		if !ch.CreatorAccepted || !ch.OpponentAccepted || ch.Status == challenge.StatusOpen {
			return ErrNotAccepted
		}

		switch role {
		case challenge.RoleCreator:
			if ch.CreatorResult == nil {
				ch.CreatorResult = &res
			}
		case challenge.RoleOpponent:
			if ch.OpponentResult == nil {
				ch.OpponentResult = &res
			}
		}

		if ch.BothDone() && ch.Status != challenge.StatusComplete {
			ch.Status = challenge.StatusComplete

			err = s.settle(tx, ch, now)
			if err != nil {
				return fmt.Errorf("settle: %w", err)
			}
		}

		err = tx.UpdateChallenge(ch)
		if err != nil {
			return fmt.Errorf("persist result: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit result: %w", err)
	}

	return ch, nil
}

// GetChallenge returns a challenge snapshot. Codes are case-insensitive.
func (s *Service) GetChallenge(ctx context.Context, code string) (*challenge.Challenge, error) {
	ch, err := s.store.GetChallenge(ctx, challenge.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}

	return ch, nil
}

// Layout derives the seeded board for a challenge. Boards are disclosed only
// once both sides have locked their stakes, so neither can study the grid
// before committing.
func (s *Service) Layout(ctx context.Context, code string) (games.Layout, error) {
	ch, err := s.GetChallenge(ctx, code)
	if err != nil {
		return games.Layout{}, err
	}

	if ch.Status != challenge.StatusFilled && ch.Status != challenge.StatusComplete {
		return games.Layout{}, ErrNotAccepted
	}

	g, ok := games.Get(ch.GameType)
	if !ok {
		return games.Layout{}, ErrUnknownGame
	}

	return g.Layout(ch.Seed), nil
}
