package ai

import (
	"goban/internal/engine"
)

// Static evaluation weights.
const (
	captureWeight      = 10.0
	positionalWeight   = 0.5 // per point of distance from the center
	adjacencyWeight    = 2.0 // per friendly neighbor
	eyePotentialBonus  = 8.0 // three or more friendly neighbors
	threatWeight       = 16.0
	defenseWeight      = 12.0
	evalAuxiliaryScale = 0.1 // eval contribution in the rollout ranking
)

// evaluateMove scores a candidate placement for color. The move is played,
// inspected and undone, leaving the engine untouched. Illegal moves score
// negative infinity substitute.
func evaluateMove(e *engine.Engine, m engine.Point, color engine.Stone) float64 {
	// Defense is judged before placing: a friendly neighbor group short on
	// liberties makes connecting to it more urgent the closer it is to
	// capture.
	score := defenseScore(e, m, color)

	res, err := e.MakeMove(m.X, m.Y, color)
	if err != nil {
		return -1 << 20
	}

	score += captureWeight * float64(res.Captured)
	score += positionalScore(e.Size(), m)

	friendly := 0
	for _, n := range e.Neighbors(m.X, m.Y) {
		if e.StoneAt(n.X, n.Y) == color {
			friendly++
		}
	}
	score += adjacencyWeight * float64(friendly)
	if friendly >= 3 {
		score += eyePotentialBonus
	}

	score += threatScore(e, m, color)

	if err := e.UndoMove(); err != nil {
		panic("ai: undo after evaluation failed: " + err.Error())
	}
	return score
}

// positionalScore favors corner and edge proximity: the farther from the
// center, the larger the bonus.
func positionalScore(size int, m engine.Point) float64 {
	center := float64(size-1) / 2
	dx := center - float64(m.X)
	if dx < 0 {
		dx = -dx
	}
	dy := center - float64(m.Y)
	if dy < 0 {
		dy = -dy
	}
	return positionalWeight * (dx + dy)
}

// threatScore rewards pressing adjacent enemy groups, steeper the fewer
// liberties they have left after the placement.
func threatScore(e *engine.Engine, m engine.Point, color engine.Stone) float64 {
	enemy := color.Opponent()
	score := 0.0
	counted := make(map[engine.Point]struct{})
	for _, n := range e.Neighbors(m.X, m.Y) {
		if e.StoneAt(n.X, n.Y) != enemy {
			continue
		}
		if _, done := counted[n]; done {
			continue
		}
		g := e.FindGroup(n.X, n.Y)
		for _, st := range g.Stones {
			counted[st] = struct{}{}
		}
		if libs := len(g.Liberties); libs > 0 {
			score += threatWeight / float64(libs)
		}
	}
	return score
}

// defenseScore rewards connecting to friendly groups in liberty danger,
// mirrored from threatScore. Judged on the pre-move board.
func defenseScore(e *engine.Engine, m engine.Point, color engine.Stone) float64 {
	score := 0.0
	counted := make(map[engine.Point]struct{})
	for _, n := range e.Neighbors(m.X, m.Y) {
		if e.StoneAt(n.X, n.Y) != color {
			continue
		}
		if _, done := counted[n]; done {
			continue
		}
		g := e.FindGroup(n.X, n.Y)
		for _, st := range g.Stones {
			counted[st] = struct{}{}
		}
		if libs := len(g.Liberties); libs > 0 && libs <= 2 {
			score += defenseWeight / float64(libs)
		}
	}
	return score
}
