package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/play4stakes/play4stakes/internal/challenge"
	"github.com/play4stakes/play4stakes/internal/store"
)

const selectChallenge = `
	SELECT code, game_type, seed, stake, status,
		creator_id, opponent_id, creator_accepted, opponent_accepted,
		escrowed_creator, escrowed_opponent,
		creator_raw_seconds, creator_final_seconds, creator_finished_at,
		opponent_raw_seconds, opponent_final_seconds, opponent_finished_at,
		created_at, expires_at, settled
	FROM challenges`

func (t *pgTx) GetChallenge(code string) (*challenge.Challenge, error) {
	row := t.tx.QueryRow(selectChallenge+` WHERE code = $1 FOR UPDATE`, code)
	return scanChallenge(row)
}

func (t *pgTx) InsertChallenge(ch *challenge.Challenge) error {
	// The insert runs under a savepoint: a unique violation would otherwise
	// abort the whole transaction and the caller could not retry with a
	// fresh code.
	_, err := t.tx.Exec(`SAVEPOINT insert_challenge`)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	_, err = t.tx.Exec(`
		INSERT INTO challenges (
			code, game_type, seed, stake, status,
			creator_id, opponent_id, creator_accepted, opponent_accepted,
			escrowed_creator, escrowed_opponent,
			creator_raw_seconds, creator_final_seconds, creator_finished_at,
			opponent_raw_seconds, opponent_final_seconds, opponent_finished_at,
			created_at, expires_at, settled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`, challengeArgs(ch)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				_, rbErr := t.tx.Exec(`ROLLBACK TO SAVEPOINT insert_challenge`)
				if rbErr != nil {
					return fmt.Errorf("rollback to savepoint: %w", rbErr)
				}

				return store.ErrCodeTaken
			}
		}

		return fmt.Errorf("insert challenge: %w", err)
	}

	_, err = t.tx.Exec(`RELEASE SAVEPOINT insert_challenge`)
	if err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}

	return nil
}

func (t *pgTx) UpdateChallenge(ch *challenge.Challenge) error {
	args := challengeArgs(ch)

	res, err := t.tx.Exec(`
		UPDATE challenges SET
			game_type = $2, seed = $3, stake = $4, status = $5,
			creator_id = $6, opponent_id = $7,
			creator_accepted = $8, opponent_accepted = $9,
			escrowed_creator = $10, escrowed_opponent = $11,
			creator_raw_seconds = $12, creator_final_seconds = $13, creator_finished_at = $14,
			opponent_raw_seconds = $15, opponent_final_seconds = $16, opponent_finished_at = $17,
			created_at = $18, expires_at = $19, settled = $20
		WHERE code = $1
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

func (t *pgTx) ListExpired(now time.Time) ([]*challenge.Challenge, error) {
	rows, err := t.tx.Query(selectChallenge+`
		WHERE status IN ($1, $2) AND expires_at <= $3
		FOR UPDATE
	`, challenge.StatusOpen, challenge.StatusFilled, now)
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

// challengeArgs flattens a challenge into the column order of
// selectChallenge, code first.
func challengeArgs(ch *challenge.Challenge) []any {
	return []any{
		ch.Code, ch.GameType, ch.Seed, ch.Stake, ch.Status,
		ch.CreatorID, ch.OpponentID, ch.CreatorAccepted, ch.OpponentAccepted,
		ch.EscrowedCreator, ch.EscrowedOpponent,
		resultRaw(ch.CreatorResult), resultFinal(ch.CreatorResult), resultFinishedAt(ch.CreatorResult),
		resultRaw(ch.OpponentResult), resultFinal(ch.OpponentResult), resultFinishedAt(ch.OpponentResult),
		ch.CreatedAt, ch.ExpiresAt, ch.Settled,
	}
}

func resultRaw(r *challenge.Result) any {
	if r == nil {
		return nil
	}
	return r.RawSeconds
}

func resultFinal(r *challenge.Result) any {
	if r == nil {
		return nil
	}
	return r.FinalSeconds
}

func resultFinishedAt(r *challenge.Result) any {
	if r == nil {
		return nil
	}
	return r.FinishedAt
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row rowScanner) (*challenge.Challenge, error) {
	var (
		ch                       challenge.Challenge
		creatorRaw, creatorFinal sql.NullFloat64
		creatorFinished          sql.NullTime
		oppRaw, oppFinal         sql.NullFloat64
		oppFinished              sql.NullTime
	)

	err := row.Scan(
		&ch.Code, &ch.GameType, &ch.Seed, &ch.Stake, &ch.Status,
		&ch.CreatorID, &ch.OpponentID, &ch.CreatorAccepted, &ch.OpponentAccepted,
		&ch.EscrowedCreator, &ch.EscrowedOpponent,
		&creatorRaw, &creatorFinal, &creatorFinished,
		&oppRaw, &oppFinal, &oppFinished,
		&ch.CreatedAt, &ch.ExpiresAt, &ch.Settled,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan challenge: %w", err)
	}

	ch.CreatedAt = ch.CreatedAt.UTC()
	ch.ExpiresAt = ch.ExpiresAt.UTC()

	if creatorFinal.Valid {
		ch.CreatorResult = &challenge.Result{
			RawSeconds:   creatorRaw.Float64,
			FinalSeconds: creatorFinal.Float64,
			FinishedAt:   creatorFinished.Time.UTC(),
		}
	}
	if oppFinal.Valid {
		ch.OpponentResult = &challenge.Result{
			RawSeconds:   oppRaw.Float64,
			FinalSeconds: oppFinal.Float64,
			FinishedAt:   oppFinished.Time.UTC(),
		}
	}

	return &ch, nil
}
