// Package challenge defines the challenge record shared by the store, the
// service layer and the HTTP API.
package challenge

import "time"

// Status is the lifecycle state of a challenge.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusFilled   Status = "FILLED"
	StatusComplete Status = "COMPLETE"
	StatusExpired  Status = "EXPIRED"
)

// Role identifies which side of a challenge a participant plays.
type Role string

const (
	RoleCreator  Role = "creator"
	RoleOpponent Role = "opponent"
)

// TTL is how long a challenge stays playable after creation.
const TTL = 48 * time.Hour

// Result is one side's completion record. FinalSeconds is the figure
// settlement compares; RawSeconds keeps the unadjusted measurement.
type Result struct {
	RawSeconds   float64   `json:"rawSeconds"`
	FinalSeconds float64   `json:"finalSeconds"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// Challenge is a head-to-head wager on the same seeded puzzle.
type Challenge struct {
	Code             string    `json:"code"`
	GameType         string    `json:"gameType"`
	Seed             string    `json:"seed"`
	Stake            int64     `json:"stake"`
	Status           Status    `json:"status"`
	CreatorID        string    `json:"creatorId,omitempty"`
	OpponentID       string    `json:"opponentId,omitempty"`
	CreatorAccepted  bool      `json:"creatorAccepted"`
	OpponentAccepted bool      `json:"opponentAccepted"`
	EscrowedCreator  int64     `json:"escrowedCreator"`
	EscrowedOpponent int64     `json:"escrowedOpponent"`
	CreatorResult    *Result   `json:"creatorResult,omitempty"`
	OpponentResult   *Result   `json:"opponentResult,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	Settled          bool      `json:"settled"`
}

// Pot is the combined escrow held for this challenge.
func (c *Challenge) Pot() int64 {
	return c.EscrowedCreator + c.EscrowedOpponent
}

// BothDone reports whether both sides have submitted a result.
func (c *Challenge) BothDone() bool {
	return c.CreatorResult != nil && c.OpponentResult != nil
}

// ExpiredAt reports whether the challenge has aged out by the given clock.
// Expiry is a derived check, not a stored transition: callers must test it
// before acting on OPEN or FILLED records.
func (c *Challenge) ExpiredAt(now time.Time) bool {
	return c.Status == StatusExpired || now.After(c.ExpiresAt)
}

// ResultFor returns the recorded result for the given role, or nil.
func (c *Challenge) ResultFor(role Role) *Result {
	if role == RoleCreator {
		return c.CreatorResult
	}
	return c.OpponentResult
}
