package arena

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/play4stakes/play4stakes/internal/challenge"
	"github.com/play4stakes/play4stakes/internal/store"
)

// settle moves escrowed funds for a completed challenge. Called with both
// results present, inside the transaction that recorded the second result.
// The strictly faster side takes the whole pot; a tie returns each side's
// own escrow. Settled flips true as the last step, so a repeated completion
// check never pays twice.
func (s *Service) settle(tx store.Tx, ch *challenge.Challenge, now time.Time) error {
	if ch.Settled || !ch.BothDone() {
		return nil
	}

	creator := ch.CreatorResult.FinalSeconds
	opponent := ch.OpponentResult.FinalSeconds

	switch {
	case creator < opponent:
		err := s.payout(tx, ch, ch.CreatorID, ch.Pot(), store.EntryPayout, now)
		if err != nil {
			return err
		}
	case opponent < creator:
		err := s.payout(tx, ch, ch.OpponentID, ch.Pot(), store.EntryPayout, now)
		if err != nil {
			return err
		}
	default:
		// Tie: no transfer between parties, each side regains its own escrow.
		err := s.payout(tx, ch, ch.CreatorID, ch.EscrowedCreator, store.EntryRefund, now)
		if err != nil {
			return err
		}
		err = s.payout(tx, ch, ch.OpponentID, ch.EscrowedOpponent, store.EntryRefund, now)
		if err != nil {
			return err
		}
	}

	ch.Settled = true

	return nil
}

// payout credits amount to a participant and records the ledger entry. An
// unbound participant id means there is nothing to credit; that escrow stays
// in the ledger rather than crashing settlement.
func (s *Service) payout(tx store.Tx, ch *challenge.Challenge, userID string, amount int64, kind store.EntryKind, now time.Time) error {
	if userID == "" || amount == 0 {
		if amount != 0 {
			slog.Warn("settlement with unbound participant, escrow unclaimed",
				"code", ch.Code, "amount", amount)
		}
		return nil
	}

	err := tx.Credit(userID, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", userID, err)
	}

	err = tx.AppendEntry(store.Entry{
		ID:            uuid.NewString(),
		UserID:        userID,
		Amount:        amount,
		Kind:          kind,
		ChallengeCode: ch.Code,
		CreatedAt:     now,
	})
	if err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}

	return nil
}
