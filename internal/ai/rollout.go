package ai

import (
	"goban/internal/engine"
)

// rolloutMoveCeiling bounds a single playout relative to the board area, so
// degenerate capture cycles cannot spin forever.
const rolloutMoveCeilingFactor = 2

// selectBySimulation ranks candidates by randomized rollouts: the fixed
// budget is split evenly, each rollout plays the candidate and then random
// legal moves to the end, and a rollout counts as a win when the proposing
// color ends with more stones on the board. A tenth of the static evaluation
// is added as a tie-breaker.
func (s *Selector) selectBySimulation(e *engine.Engine, color engine.Stone, moves []engine.Point) engine.Point {
	perMove := s.budget / len(moves)
	if perMove < 1 {
		perMove = 1
	}

	best := moves[0]
	bestScore := float64(-1 << 20)
	for _, m := range moves {
		wins := 0
		for i := 0; i < perMove; i++ {
			if s.playout(e, m, color) > 0 {
				wins++
			}
		}
		score := float64(wins) + evalAuxiliaryScale*evaluateMove(e, m, color)
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	return best
}

// playout plays the candidate on a throwaway copy of the engine, then
// alternates uniformly random legal moves until two consecutive passes or the
// move ceiling, and returns the net stone count from color's perspective.
func (s *Selector) playout(e *engine.Engine, m engine.Point, color engine.Stone) int {
	sim := e.Clone()
	if _, err := sim.MakeMove(m.X, m.Y, color); err != nil {
		return -1
	}

	turn := color.Opponent()
	ceiling := rolloutMoveCeilingFactor * sim.Size() * sim.Size()
	for i := 0; i < ceiling && !sim.GameOver(); i++ {
		legal := sim.AllValidMoves(turn)
		if len(legal) == 0 {
			sim.Pass(turn)
		} else {
			pick := legal[s.rnd.Intn(len(legal))]
			if _, err := sim.MakeMove(pick.X, pick.Y, turn); err != nil {
				sim.Pass(turn)
			}
		}
		turn = turn.Opponent()
	}

	return netStones(sim, color)
}

// netStones is the rollout scoring: stone count difference only, no
// territory.
func netStones(e *engine.Engine, color engine.Stone) int {
	diff := 0
	for y := 0; y < e.Size(); y++ {
		for x := 0; x < e.Size(); x++ {
			switch e.StoneAt(x, y) {
			case color:
				diff++
			case color.Opponent():
				diff--
			}
		}
	}
	return diff
}
