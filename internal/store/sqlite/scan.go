package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/play4stakes/play4stakes/internal/challenge"
	"github.com/play4stakes/play4stakes/internal/store"
)

const selectChallenge = `
	SELECT code, game_type, seed, stake, status,
		creator_id, opponent_id, creator_accepted, opponent_accepted,
		escrowed_creator, escrowed_opponent,
		creator_raw_seconds, creator_final_seconds, creator_finished_ms,
		opponent_raw_seconds, opponent_final_seconds, opponent_finished_ms,
		created_ms, expires_ms, settled
	FROM challenges`

type rowScanner interface {
	Scan(dest ...any) error
}

// challengeArgs flattens a challenge into the column order of
// selectChallenge, code first.
func challengeArgs(ch *challenge.Challenge) []any {
	return []any{
		ch.Code, ch.GameType, ch.Seed, ch.Stake, ch.Status,
		ch.CreatorID, ch.OpponentID, ch.CreatorAccepted, ch.OpponentAccepted,
		ch.EscrowedCreator, ch.EscrowedOpponent,
		resultArg(ch.CreatorResult, func(r *challenge.Result) any { return r.RawSeconds }),
		resultArg(ch.CreatorResult, func(r *challenge.Result) any { return r.FinalSeconds }),
		resultArg(ch.CreatorResult, func(r *challenge.Result) any { return r.FinishedAt.UnixMilli() }),
		resultArg(ch.OpponentResult, func(r *challenge.Result) any { return r.RawSeconds }),
		resultArg(ch.OpponentResult, func(r *challenge.Result) any { return r.FinalSeconds }),
		resultArg(ch.OpponentResult, func(r *challenge.Result) any { return r.FinishedAt.UnixMilli() }),
		ch.CreatedAt.UnixMilli(), ch.ExpiresAt.UnixMilli(), ch.Settled,
	}
}

func resultArg(r *challenge.Result, pick func(*challenge.Result) any) any {
	if r == nil {
		return nil
	}
	return pick(r)
}

func scanChallenge(row rowScanner) (*challenge.Challenge, error) {
	var (
		ch                       challenge.Challenge
		creatorRaw, creatorFinal sql.NullFloat64
		creatorFinishedMs        sql.NullInt64
		oppRaw, oppFinal         sql.NullFloat64
		oppFinishedMs            sql.NullInt64
		createdMs, expiresMs     int64
	)

	err := row.Scan(
		&ch.Code, &ch.GameType, &ch.Seed, &ch.Stake, &ch.Status,
		&ch.CreatorID, &ch.OpponentID, &ch.CreatorAccepted, &ch.OpponentAccepted,
		&ch.EscrowedCreator, &ch.EscrowedOpponent,
		&creatorRaw, &creatorFinal, &creatorFinishedMs,
		&oppRaw, &oppFinal, &oppFinishedMs,
		&createdMs, &expiresMs, &ch.Settled,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan challenge: %w", err)
	}

	ch.CreatedAt = time.UnixMilli(createdMs).UTC()
	ch.ExpiresAt = time.UnixMilli(expiresMs).UTC()
	ch.CreatorResult = scannedResult(creatorRaw, creatorFinal, creatorFinishedMs)
	ch.OpponentResult = scannedResult(oppRaw, oppFinal, oppFinishedMs)

	return &ch, nil
}

func scannedResult(raw, final sql.NullFloat64, finishedMs sql.NullInt64) *challenge.Result {
	if !final.Valid {
		return nil
	}
	return &challenge.Result{
		RawSeconds:   raw.Float64,
		FinalSeconds: final.Float64,
		FinishedAt:   time.UnixMilli(finishedMs.Int64).UTC(),
	}
}
