// Package ai selects moves for the computer opponent. It works only through
// the engine's public legality primitives and restores the engine after every
// speculative evaluation.
package ai

import (
	"math/rand"
	"time"

	"goban/internal/engine"
)

// Randomness is the injectable random source used for tie-breaking and
// rollouts, so tests can seed it deterministically.
type Randomness interface {
	Intn(n int) int
}

type Level int

const (
	LevelEasy Level = iota + 1
	LevelMedium
	LevelHard
)

func (l Level) String() string {
	switch l {
	case LevelEasy:
		return "easy"
	case LevelMedium:
		return "medium"
	case LevelHard:
		return "hard"
	}
	return "unknown"
}

const DefaultSimulationBudget = 300

type Selector struct {
	rnd    Randomness
	budget int // total rollouts for LevelHard, split across candidates
}

func NewSelector(rnd Randomness, simulationBudget int) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if simulationBudget <= 0 {
		simulationBudget = DefaultSimulationBudget
	}
	return &Selector{rnd: rnd, budget: simulationBudget}
}

// SelectMove proposes the next move for color at the given level. ok is false
// when color has no legal move and the caller should pass. The engine is left
// exactly as it was found.
func (s *Selector) SelectMove(e *engine.Engine, color engine.Stone, level Level) (move engine.Point, ok bool) {
	moves := e.AllValidMoves(color)
	if len(moves) == 0 {
		return engine.Point{}, false
	}

	switch level {
	case LevelMedium:
		return s.selectByEvaluation(e, color, moves), true
	case LevelHard:
		return s.selectBySimulation(e, color, moves), true
	default:
		return s.selectEasy(e, color, moves), true
	}
}

// selectEasy prefers capturing moves, then moves whose group keeps at least
// two liberties, then anything legal, uniformly at random within each class.
func (s *Selector) selectEasy(e *engine.Engine, color engine.Stone, moves []engine.Point) engine.Point {
	var capturing, safe []engine.Point
	for _, m := range moves {
		captured, err := e.IsValidMove(m.X, m.Y, color)
		if err != nil {
			continue
		}
		if len(captured) > 0 {
			capturing = append(capturing, m)
			continue
		}
		if s.resultingLiberties(e, m, color) >= 2 {
			safe = append(safe, m)
		}
	}
	if len(capturing) > 0 {
		return capturing[s.rnd.Intn(len(capturing))]
	}
	if len(safe) > 0 {
		return safe[s.rnd.Intn(len(safe))]
	}
	return moves[s.rnd.Intn(len(moves))]
}

// resultingLiberties plays the move, counts the placed group's liberties and
// rewinds.
func (s *Selector) resultingLiberties(e *engine.Engine, m engine.Point, color engine.Stone) int {
	if _, err := e.MakeMove(m.X, m.Y, color); err != nil {
		return 0
	}
	libs := len(e.FindGroup(m.X, m.Y).Liberties)
	if err := e.UndoMove(); err != nil {
		panic("ai: undo after speculative move failed: " + err.Error())
	}
	return libs
}

// selectByEvaluation picks the highest statically evaluated move; the first
// candidate in iteration order wins ties.
func (s *Selector) selectByEvaluation(e *engine.Engine, color engine.Stone, moves []engine.Point) engine.Point {
	best := moves[0]
	bestScore := evaluateMove(e, moves[0], color)
	for _, m := range moves[1:] {
		if score := evaluateMove(e, m, color); score > bestScore {
			best, bestScore = m, score
		}
	}
	return best
}
