package arena

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/play4stakes/play4stakes/internal/challenge"
	"github.com/play4stakes/play4stakes/internal/store"
)

// SweepExpired marks OPEN and FILLED challenges past their expiry as
// EXPIRED and returns each bound side's own escrow. Returns the number of
// challenges swept. Run periodically; nothing else transitions records to
// EXPIRED, mutating operations only refuse to act on stale ones.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	now := s.now().UTC()
	swept := 0

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		stale, err := tx.ListExpired(now)
		if err != nil {
			return fmt.Errorf("list expired: %w", err)
		}

		for _, ch := range stale {
			err = s.payout(tx, ch, ch.CreatorID, ch.EscrowedCreator, store.EntryRefund, now)
			if err != nil {
				return fmt.Errorf("refund creator of %s: %w", ch.Code, err)
			}

			err = s.payout(tx, ch, ch.OpponentID, ch.EscrowedOpponent, store.EntryRefund, now)
			if err != nil {
				return fmt.Errorf("refund opponent of %s: %w", ch.Code, err)
			}

			ch.Status = challenge.StatusExpired
			ch.Settled = true

			err = tx.UpdateChallenge(ch)
			if err != nil {
				return fmt.Errorf("mark %s expired: %w", ch.Code, err)
			}

			swept++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sweep expired: %w", err)
	}

	if swept > 0 {
		slog.Info("swept expired challenges", "count", swept)
	}

	return swept, nil
}
