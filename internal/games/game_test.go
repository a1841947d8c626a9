package games

import (
	"testing"
)

func TestRegistryVariants(t *testing.T) {
	t.Parallel()

	want := []string{"DOWN", "SCOUT", "UP"}
	got := List()
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() = %v, want %v", got, want)
		}
	}

	if _, ok := Get("SCOUT"); !ok {
		t.Fatal("SCOUT not registered")
	}
	if _, ok := Get("scout"); ok {
		t.Fatal("variant names are case-sensitive; lowercase lookup must miss")
	}
}

func TestVariantLayouts(t *testing.T) {
	t.Parallel()

	const seed = "LAYOUT-SEED"

	scout, _ := Get("SCOUT")
	layout := scout.Layout(seed)
	if len(layout.Grid) != GridSize {
		t.Fatalf("scout grid has %d cells, want %d", len(layout.Grid), GridSize)
	}
	if len(layout.Targets) != ScoutTargetCount {
		t.Fatalf("scout layout has %d targets, want %d", len(layout.Targets), ScoutTargetCount)
	}

	for _, name := range []string{"DOWN", "UP"} {
		g, _ := Get(name)
		l := g.Layout(seed)
		if len(l.Grid) != GridSize {
			t.Fatalf("%s grid has %d cells, want %d", name, len(l.Grid), GridSize)
		}
		if l.Targets != nil {
			t.Fatalf("%s layout should not carry targets", name)
		}
	}

	// All variants share the same seeded grid.
	down, _ := Get("DOWN")
	dg := down.Layout(seed).Grid
	for i := range layout.Grid {
		if layout.Grid[i] != dg[i] {
			t.Fatalf("variants disagree on grid at index %d", i)
		}
	}
}
