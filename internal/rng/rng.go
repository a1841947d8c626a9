// Package rng implements the seeded generator that makes challenge boards
// reproducible: the same seed string always yields the same float stream, so
// both participants derive an identical puzzle.
//
// The stream is FNV-1a over the seed string feeding a Mulberry32 state. It is
// deliberately not cryptographically secure; anyone holding the seed can
// predict the whole stream. Boards are only disclosed to both sides together,
// so unpredictability has no security value here. Do not use this package for
// anything that needs a secure source.
package rng

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619

	mulberryIncrement = 0x6D2B79F5
)

// HashSeed reduces a seed string to a 32-bit generator state using FNV-1a.
// Any string is valid input; an empty seed simply yields the offset basis.
func HashSeed(seed string) uint32 {
	h := uint32(fnvOffset32)
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= fnvPrime32
	}
	return h
}

// Generator is a Mulberry32 stream over a 32-bit state.
type Generator struct {
	state uint32
}

// New returns a generator seeded from the given string.
func New(seed string) *Generator {
	return &Generator{state: HashSeed(seed)}
}

// Float64 advances the state and returns the next value in [0, 1).
func (g *Generator) Float64() float64 {
	g.state += mulberryIncrement
	t := g.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296.0
}
