package engine

import (
	errs "goban/internal/errors"
)

const DefaultKomi = 6.5

// Engine owns the board grid, the turn, capture tallies, the ko point and the
// full snapshot history. It is the single source of truth for legality and
// score; callers never touch the grid directly.
type Engine struct {
	size          int
	komi          float64
	board         [][]Stone
	currentPlayer Stone
	capturedBlack int // black stones removed from the board
	capturedWhite int // white stones removed from the board
	koPoint       *Point
	lastMove      *MoveRecord
	moveLog       []MoveRecord
	history       []snapshot
}

type snapshot struct {
	board         [][]Stone
	currentPlayer Stone
	capturedBlack int
	capturedWhite int
	koPoint       *Point
	lastMove      *MoveRecord
}

// MoveResult reports what an applied move did to the board.
type MoveResult struct {
	Captured int    `json:"captured"`
	KoPoint  *Point `json:"ko_point,omitempty"`
}

func New(size int) *Engine {
	e := &Engine{komi: DefaultKomi}
	e.Init(size)
	return e
}

// Init restarts the engine: empty grid, black to move, cleared tallies, ko and
// history, and the initial snapshot recorded.
func (e *Engine) Init(size int) {
	if size <= 0 {
		size = 19
	}
	e.size = size
	e.board = make([][]Stone, size)
	for y := range e.board {
		e.board[y] = make([]Stone, size)
	}
	e.currentPlayer = Black
	e.capturedBlack = 0
	e.capturedWhite = 0
	e.koPoint = nil
	e.lastMove = nil
	e.moveLog = nil
	e.history = nil
	e.pushSnapshot()
}

func (e *Engine) Size() int            { return e.size }
func (e *Engine) Komi() float64        { return e.komi }
func (e *Engine) SetKomi(komi float64) { e.komi = komi }
func (e *Engine) CurrentPlayer() Stone { return e.currentPlayer }
func (e *Engine) CapturedBlack() int   { return e.capturedBlack }
func (e *Engine) CapturedWhite() int   { return e.capturedWhite }
func (e *Engine) MoveCount() int       { return len(e.moveLog) }

func (e *Engine) KoPoint() *Point {
	if e.koPoint == nil {
		return nil
	}
	p := *e.koPoint
	return &p
}

func (e *Engine) LastMove() *MoveRecord {
	if e.lastMove == nil {
		return nil
	}
	m := *e.lastMove
	return &m
}

func (e *Engine) StoneAt(x, y int) Stone {
	if !e.IsOnBoard(x, y) {
		return Empty
	}
	return e.board[y][x]
}

func (e *Engine) IsOnBoard(x, y int) bool {
	return x >= 0 && x < e.size && y >= 0 && y < e.size
}

// Neighbors returns the orthogonally adjacent in-bounds points of (x,y).
func (e *Engine) Neighbors(x, y int) []Point {
	candidates := [4]Point{{x, y - 1}, {x - 1, y}, {x + 1, y}, {x, y + 1}}
	result := make([]Point, 0, 4)
	for _, p := range candidates {
		if e.IsOnBoard(p.X, p.Y) {
			result = append(result, p)
		}
	}
	return result
}

// IsValidMove checks legality without changing the board. Checks run in fixed
// order: bounds, occupancy, ko, then suicide — captures resolve before suicide
// is judged, so a capturing move is legal even with no liberty of its own.
// When the move is legal the returned slice holds the stones it would capture.
func (e *Engine) IsValidMove(x, y int, player Stone) ([]Point, error) {
	if !e.IsOnBoard(x, y) {
		return nil, errs.ErrOutOfRange
	}
	if e.board[y][x] != Empty {
		return nil, errs.ErrOccupied
	}
	if e.koPoint != nil && e.koPoint.X == x && e.koPoint.Y == y {
		return nil, errs.ErrKoViolation
	}

	captured := e.FindCapturedStones(x, y, player)
	if len(captured) > 0 {
		return captured, nil
	}

	e.board[y][x] = player
	own := e.FindGroup(x, y)
	e.board[y][x] = Empty
	if len(own.Liberties) == 0 {
		return nil, errs.ErrSuicide
	}
	return nil, nil
}

// MakeMove validates and applies a placement by player at (x,y). On success
// the captured groups are removed, the ko point recomputed, the move logged,
// the turn handed to the opponent and a snapshot appended.
func (e *Engine) MakeMove(x, y int, player Stone) (MoveResult, error) {
	captured, err := e.IsValidMove(x, y, player)
	if err != nil {
		return MoveResult{}, err
	}

	e.board[y][x] = player
	for _, p := range captured {
		e.board[p.Y][p.X] = Empty
	}
	switch player {
	case Black:
		e.capturedWhite += len(captured)
	case White:
		e.capturedBlack += len(captured)
	}

	// Single-point ko: exactly one stone captured and the placed stone ends
	// up alone with exactly one liberty. The ko point is the captured point.
	e.koPoint = nil
	if len(captured) == 1 {
		own := e.FindGroup(x, y)
		if len(own.Stones) == 1 && len(own.Liberties) == 1 {
			ko := captured[0]
			e.koPoint = &ko
		}
	}

	record := MoveRecord{X: x, Y: y, Player: player, Captured: len(captured)}
	e.moveLog = append(e.moveLog, record)
	e.lastMove = &record
	e.currentPlayer = player.Opponent()
	e.pushSnapshot()

	return MoveResult{Captured: len(captured), KoPoint: e.KoPoint()}, nil
}

// Pass records a pass for player, clears the ko point and hands the turn over.
// It reports whether the game ended (two passes in a row).
func (e *Engine) Pass(player Stone) (gameEnd bool) {
	record := MoveRecord{Player: player, Pass: true}
	e.moveLog = append(e.moveLog, record)
	e.lastMove = &record
	e.koPoint = nil
	e.currentPlayer = player.Opponent()
	e.pushSnapshot()
	return e.GameOver()
}

// GameOver reports whether the two most recent log entries are both passes.
func (e *Engine) GameOver() bool {
	n := len(e.moveLog)
	return n >= 2 && e.moveLog[n-1].Pass && e.moveLog[n-2].Pass
}

// UndoMove rewinds one ply by dropping the latest snapshot and restoring the
// previous one verbatim. It fails when only the initial snapshot remains.
func (e *Engine) UndoMove() error {
	if len(e.history) <= 1 {
		return errs.ErrNothingToUndo
	}
	e.history = e.history[:len(e.history)-1]
	e.moveLog = e.moveLog[:len(e.moveLog)-1]
	e.restoreSnapshot(e.history[len(e.history)-1])
	return nil
}

// AllValidMoves enumerates every legal placement for player in row-major
// order.
func (e *Engine) AllValidMoves(player Stone) []Point {
	var moves []Point
	for y := 0; y < e.size; y++ {
		for x := 0; x < e.size; x++ {
			if _, err := e.IsValidMove(x, y, player); err == nil {
				moves = append(moves, Point{X: x, Y: y})
			}
		}
	}
	return moves
}

// Clone returns an independent engine with the same position, tallies, log
// and komi. The clone starts with a fresh single-snapshot history.
func (e *Engine) Clone() *Engine {
	c := New(e.size)
	c.LoadState(e.BoardState())
	return c
}

func (e *Engine) pushSnapshot() {
	e.history = append(e.history, snapshot{
		board:         copyBoard(e.board),
		currentPlayer: e.currentPlayer,
		capturedBlack: e.capturedBlack,
		capturedWhite: e.capturedWhite,
		koPoint:       e.KoPoint(),
		lastMove:      e.LastMove(),
	})
}

func (e *Engine) restoreSnapshot(s snapshot) {
	e.board = copyBoard(s.board)
	e.currentPlayer = s.currentPlayer
	e.capturedBlack = s.capturedBlack
	e.capturedWhite = s.capturedWhite
	e.koPoint = nil
	if s.koPoint != nil {
		ko := *s.koPoint
		e.koPoint = &ko
	}
	e.lastMove = nil
	if s.lastMove != nil {
		m := *s.lastMove
		e.lastMove = &m
	}
}

func copyBoard(b [][]Stone) [][]Stone {
	out := make([][]Stone, len(b))
	for y := range b {
		out[y] = make([]Stone, len(b[y]))
		copy(out[y], b[y])
	}
	return out
}
