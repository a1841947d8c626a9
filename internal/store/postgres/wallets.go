package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/play4stakes/play4stakes/internal/store"
)

func (t *pgTx) EnsureWallet(userID string, opening int64) (bool, error) {
	res, err := t.tx.Exec(`
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, $2)
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

func (t *pgTx) LockAndGetBalance(userID string) (int64, error) {
	var balance int64

	err := t.tx.QueryRow(`
		SELECT balance
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrWalletNotFound
		}
		return 0, fmt.Errorf("lock and get balance: %w", err)
	}

	return balance, nil
}

func (t *pgTx) Credit(userID string, amount int64) error {
	res, err := t.tx.Exec(`
		UPDATE wallets
		SET balance = balance + $2
		WHERE user_id = $1
	`, userID, amount)
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

func (t *pgTx) Debit(userID string, amount int64) error {
	res, err := t.tx.Exec(`
		UPDATE wallets
		SET balance = balance - $2
		WHERE user_id = $1
		  AND balance >= $2
	`, userID, amount)
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
