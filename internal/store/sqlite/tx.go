package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/play4stakes/play4stakes/internal/challenge"
	"github.com/play4stakes/play4stakes/internal/store"
)

type sqliteTx struct {
	tx *sql.Tx
}

var _ store.Tx = (*sqliteTx)(nil)

func (t *sqliteTx) EnsureWallet(userID string, opening int64) (bool, error) {
	res, err := t.tx.Exec(`
		INSERT INTO wallets (user_id, balance) VALUES (?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, opening)
	if err != nil {
		return false, fmt.Errorf("ensure wallet: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

func (t *sqliteTx) LockAndGetBalance(userID string) (int64, error) {
	// sqlite has no row locks; the transaction itself serializes writers.
	var balance int64

	err := t.tx.QueryRow(`
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

func (t *sqliteTx) Credit(userID string, amount int64) error {
	res, err := t.tx.Exec(`
		UPDATE wallets SET balance = balance + ? WHERE user_id = ?
	`, amount, userID)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrWalletNotFound
	}

	return nil
}

func (t *sqliteTx) Debit(userID string, amount int64) error {
	res, err := t.tx.Exec(`
		UPDATE wallets
		SET balance = balance - ?
		WHERE user_id = ?
		  AND balance >= ?
	`, amount, userID, amount)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrInsufficientFunds
	}

	return nil
}

func (t *sqliteTx) GetChallenge(code string) (*challenge.Challenge, error) {
	row := t.tx.QueryRow(selectChallenge+` WHERE code = ?`, code)
	return scanChallenge(row)
}

func (t *sqliteTx) InsertChallenge(ch *challenge.Challenge) error {
	res, err := t.tx.Exec(`
		INSERT OR IGNORE INTO challenges (
			code, game_type, seed, stake, status,
			creator_id, opponent_id, creator_accepted, opponent_accepted,
			escrowed_creator, escrowed_opponent,
			creator_raw_seconds, creator_final_seconds, creator_finished_ms,
			opponent_raw_seconds, opponent_final_seconds, opponent_finished_ms,
			created_ms, expires_ms, settled
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, challengeArgs(ch)...)
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrCodeTaken
	}

	return nil
}

func (t *sqliteTx) UpdateChallenge(ch *challenge.Challenge) error {
	args := challengeArgs(ch)
	// Move code from first position to the WHERE clause.
	args = append(args[1:], ch.Code)

	res, err := t.tx.Exec(`
		UPDATE challenges SET
			game_type = ?, seed = ?, stake = ?, status = ?,
			creator_id = ?, opponent_id = ?, creator_accepted = ?, opponent_accepted = ?,
			escrowed_creator = ?, escrowed_opponent = ?,
			creator_raw_seconds = ?, creator_final_seconds = ?, creator_finished_ms = ?,
			opponent_raw_seconds = ?, opponent_final_seconds = ?, opponent_finished_ms = ?,
			created_ms = ?, expires_ms = ?, settled = ?
		WHERE code = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (t *sqliteTx) ListExpired(now time.Time) ([]*challenge.Challenge, error) {
	rows, err := t.tx.Query(selectChallenge+`
		WHERE status IN (?, ?) AND expires_ms <= ?
	`, challenge.StatusOpen, challenge.StatusFilled, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list expired: %w", err)
	}
	defer rows.Close()

	var out []*challenge.Challenge
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired rows: %w", err)
	}

	return out, nil
}

func (t *sqliteTx) AppendEntry(e store.Entry) error {
	res, err := t.tx.Exec(`
		INSERT OR IGNORE INTO ledger_entries (id, user_id, amount, kind, challenge_code, created_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.Amount, e.Kind, e.ChallengeCode, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrDuplicateEntry
	}

	return nil
}
