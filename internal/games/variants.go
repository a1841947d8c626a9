package games

// ScoutGame is the "5 Numbers Scout" variant: find five target numbers on the
// grid as fast as possible.
type ScoutGame struct{}

func (g *ScoutGame) Name() string {
	return "SCOUT"
}

func (g *ScoutGame) Layout(seed string) Layout {
	return Layout{
		Grid:    Board(seed),
		Targets: Targets(seed, ScoutTargetCount),
	}
}

// DownGame is the "25 Down" variant: tap 25 down to 1 in order.
type DownGame struct{}

func (g *DownGame) Name() string {
	return "DOWN"
}

func (g *DownGame) Layout(seed string) Layout {
	return Layout{Grid: Board(seed)}
}

// UpGame is the "25 Up" variant: tap 1 up to 25 in order.
type UpGame struct{}

func (g *UpGame) Name() string {
	return "UP"
}

func (g *UpGame) Layout(seed string) Layout {
	return Layout{Grid: Board(seed)}
}
