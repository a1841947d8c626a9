package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/play4stakes/play4stakes/internal/store"
)

func (t *pgTx) AppendEntry(e store.Entry) error {
	_, err := t.tx.Exec(`
		INSERT INTO ledger_entries (id, user_id, amount, kind, challenge_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.UserID, e.Amount, e.Kind, e.ChallengeCode, e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return store.ErrDuplicateEntry
			}
		}

		return fmt.Errorf("append entry: %w", err)
	}

	return nil
}
