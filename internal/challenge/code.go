package challenge

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// codeAlphabet excludes visually ambiguous characters (I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the length of a human-shareable challenge code.
const CodeLength = 4

// NewCode draws a fresh candidate code. Codes are short, so callers must
// retry on collision against the store.
func NewCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// NormalizeCode canonicalizes a user-supplied code for lookup. Codes are
// case-insensitive and stored uppercased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewSeed returns a fresh opaque seed string for a challenge. The value only
// needs to be unique per challenge; determinism of the board comes from
// hashing it, not from its format.
func NewSeed() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
