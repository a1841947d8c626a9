package store

import "time"

// EntryKind classifies a ledger fund movement.
type EntryKind string

const (
	EntryStarter EntryKind = "starter"
	EntryTopUp   EntryKind = "topup"
	EntryEscrow  EntryKind = "escrow"
	EntryPayout  EntryKind = "payout"
	EntryRefund  EntryKind = "refund"
)

// Entry is one audited fund movement. Amount is signed: debits are negative.
// ChallengeCode is empty for movements not tied to a challenge.
type Entry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Amount        int64     `json:"amount"`
	Kind          EntryKind `json:"kind"`
	ChallengeCode string    `json:"challengeCode,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
