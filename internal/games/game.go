// Package games derives the puzzle boards played in a challenge. Every
// layout is a pure function of the challenge seed, so the creator and the
// opponent always see the same grid.
package games

import "sort"

// Layout is a rendered board for one challenge seed.
type Layout struct {
	Grid    []int `json:"grid"`
	Targets []int `json:"targets,omitempty"`
}

// Game is one puzzle variant.
type Game interface {
	// Name returns the variant identifier stored on a challenge.
	Name() string

	// Layout derives the board for the given seed.
	Layout(seed string) Layout
}

var registry = make(map[string]Game)

// Register adds a variant to the registry.
func Register(g Game) {
	registry[g.Name()] = g
}

// Get retrieves a variant by name.
func Get(name string) (Game, bool) {
	g, ok := registry[name]
	return g, ok
}

// List returns all registered variant names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(&ScoutGame{})
	Register(&DownGame{})
	Register(&UpGame{})
}
