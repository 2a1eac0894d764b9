package engine

import (
	"errors"
	"testing"

	errs "goban/internal/errors"
)

func boardsEqual(a, b [][]Stone) bool {
	if len(a) != len(b) {
		return false
	}
	for y := range a {
		if len(a[y]) != len(b[y]) {
			return false
		}
		for x := range a[y] {
			if a[y][x] != b[y][x] {
				return false
			}
		}
	}
	return true
}

func TestInitStartsEmptyWithBlackToMove(t *testing.T) {
	e := New(9)
	if e.Size() != 9 {
		t.Fatalf("size = %d, want 9", e.Size())
	}
	if e.CurrentPlayer() != Black {
		t.Fatalf("current player = %v, want black", e.CurrentPlayer())
	}
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			if e.StoneAt(x, y) != Empty {
				t.Fatalf("cell (%d,%d) not empty after init", x, y)
			}
		}
	}
	if err := e.UndoMove(); !errors.Is(err, errs.ErrNothingToUndo) {
		t.Fatalf("undo on fresh engine = %v, want ErrNothingToUndo", err)
	}
}

func TestNeighborsAtCornerEdgeCenter(t *testing.T) {
	e := New(9)
	if n := len(e.Neighbors(0, 0)); n != 2 {
		t.Errorf("corner neighbors = %d, want 2", n)
	}
	if n := len(e.Neighbors(4, 0)); n != 3 {
		t.Errorf("edge neighbors = %d, want 3", n)
	}
	if n := len(e.Neighbors(4, 4)); n != 4 {
		t.Errorf("center neighbors = %d, want 4", n)
	}
}

func TestFindGroupOnEmptyCellIsEmpty(t *testing.T) {
	e := New(9)
	g := e.FindGroup(4, 4)
	if len(g.Stones) != 0 || len(g.Liberties) != 0 {
		t.Fatalf("empty cell group: stones=%d liberties=%d, want 0/0", len(g.Stones), len(g.Liberties))
	}
}

func TestFindGroupCountsLibertiesAsSet(t *testing.T) {
	e := New(9)
	// Two connected black stones; the shared liberties must not double-count.
	e.MakeMove(2, 2, Black)
	e.Pass(White)
	e.MakeMove(3, 2, Black)

	g := e.FindGroup(2, 2)
	if len(g.Stones) != 2 {
		t.Fatalf("group size = %d, want 2", len(g.Stones))
	}
	if len(g.Liberties) != 6 {
		t.Fatalf("liberties = %d, want 6", len(g.Liberties))
	}
}

func TestIsValidMoveDoesNotMutateBoard(t *testing.T) {
	e := New(9)
	e.MakeMove(1, 0, Black)
	e.MakeMove(0, 1, White)
	before := copyBoard(e.board)

	e.IsValidMove(0, 0, White)
	e.IsValidMove(0, 0, Black)
	e.IsValidMove(1, 0, White) // occupied

	if !boardsEqual(before, e.board) {
		t.Fatal("board changed by IsValidMove")
	}
}

func TestMoveRejectionReasons(t *testing.T) {
	e := New(9)
	e.MakeMove(4, 4, Black)

	if _, err := e.IsValidMove(9, 4, White); !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("out of range: got %v", err)
	}
	if _, err := e.IsValidMove(4, 4, White); !errors.Is(err, errs.ErrOccupied) {
		t.Errorf("occupied: got %v", err)
	}
}

func TestSuicideRejectedButCaptureAllowed(t *testing.T) {
	e := New(9)
	// White surrounds (0,0) so black playing there is suicide.
	e.board[0][1] = White
	e.board[1][0] = White
	if _, err := e.IsValidMove(0, 0, Black); !errors.Is(err, errs.ErrSuicide) {
		t.Fatalf("corner suicide: got %v, want ErrSuicide", err)
	}

	// Now the same point captures: black stones take the liberties of the
	// white pair, leaving (0,0) as white's killing-and-killed point.
	e.board[0][2] = Black
	e.board[1][1] = Black
	e.board[2][0] = Black
	captured, err := e.IsValidMove(0, 0, Black)
	if err != nil {
		t.Fatalf("capturing move rejected: %v", err)
	}
	if len(captured) != 2 {
		t.Fatalf("captured = %d stones, want 2", len(captured))
	}
}

func TestCaptureIncrementsTallyOfRemovedColor(t *testing.T) {
	e := New(9)
	e.board[4][4] = White // (4,4)
	e.board[3][4] = Black // (4,3)
	e.board[5][4] = Black // (4,5)
	e.board[4][3] = Black // (3,4)

	res, err := e.MakeMove(5, 4, Black) // last liberty of the white stone
	if err != nil {
		t.Fatalf("capturing move rejected: %v", err)
	}
	if res.Captured != 1 {
		t.Fatalf("captured = %d, want 1", res.Captured)
	}
	if e.CapturedWhite() != 1 || e.CapturedBlack() != 0 {
		t.Fatalf("tallies black=%d white=%d, want 0/1", e.CapturedBlack(), e.CapturedWhite())
	}
	if e.StoneAt(4, 4) != Empty {
		t.Fatal("captured stone still on board")
	}
}

// koPosition builds the classic one-for-one ko shape and has white capture
// the lone black stone at (4,4) by playing (3,4). Returns the engine after
// the capture; the reported ko point must be (4,4).
//
//	x:  2 3 4 5
//	y3:   B W
//	y4: B . b W     b at (4,4) is captured when white plays the dot (3,4)
//	y5:   B W
func koPosition(t *testing.T) *Engine {
	t.Helper()
	e := New(9)
	e.board[4][4] = Black // (4,4), the stone to be captured
	e.board[3][3] = Black // (3,3)
	e.board[5][3] = Black // (3,5)
	e.board[4][2] = Black // (2,4)
	e.board[3][4] = White // (4,3)
	e.board[5][4] = White // (4,5)
	e.board[4][5] = White // (5,4)
	e.currentPlayer = White

	res, err := e.MakeMove(3, 4, White) // captures black (4,4), single stone single liberty
	if err != nil {
		t.Fatalf("ko capture rejected: %v", err)
	}
	if res.Captured != 1 {
		t.Fatalf("ko capture took %d stones, want 1", res.Captured)
	}
	if res.KoPoint == nil || res.KoPoint.X != 4 || res.KoPoint.Y != 4 {
		t.Fatalf("ko point = %+v, want (4,4)", res.KoPoint)
	}
	return e
}

func TestKoForbidsImmediateRecapture(t *testing.T) {
	e := koPosition(t)
	if _, err := e.IsValidMove(4, 4, Black); !errors.Is(err, errs.ErrKoViolation) {
		t.Fatalf("immediate recapture: got %v, want ErrKoViolation", err)
	}
}

func TestKoClearedAfterOnePly(t *testing.T) {
	e := koPosition(t)
	if _, err := e.MakeMove(8, 8, Black); err != nil {
		t.Fatalf("tenuki rejected: %v", err)
	}
	if e.KoPoint() != nil {
		t.Fatalf("ko point survived a move: %+v", e.KoPoint())
	}
	if _, err := e.IsValidMove(4, 4, Black); err != nil {
		t.Fatalf("recapture after intervening move rejected: %v", err)
	}
}

func TestPassClearsKo(t *testing.T) {
	e := koPosition(t)
	e.Pass(Black)
	if e.KoPoint() != nil {
		t.Fatalf("ko point survived a pass: %+v", e.KoPoint())
	}
}

func TestCaptureWithoutKoShapeSetsNoKoPoint(t *testing.T) {
	e := New(9)
	// Capturing a two-stone group never produces a ko point.
	e.board[4][3] = White
	e.board[4][4] = White
	e.board[3][3] = Black
	e.board[3][4] = Black
	e.board[5][3] = Black
	e.board[5][4] = Black
	e.board[4][2] = Black

	res, err := e.MakeMove(5, 4, Black)
	if err != nil {
		t.Fatalf("capture rejected: %v", err)
	}
	if res.Captured != 2 {
		t.Fatalf("captured = %d, want 2", res.Captured)
	}
	if res.KoPoint != nil {
		t.Fatalf("ko point set for multi-stone capture: %+v", res.KoPoint)
	}
}

func TestUndoRestoresExactPreMoveState(t *testing.T) {
	e := New(9)
	e.MakeMove(2, 2, Black)
	e.MakeMove(6, 6, White)

	before := e.BoardState()
	if _, err := e.MakeMove(3, 3, Black); err != nil {
		t.Fatalf("move rejected: %v", err)
	}
	if err := e.UndoMove(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	after := e.BoardState()

	if !boardsEqual(before.Board, after.Board) {
		t.Fatal("board not restored by undo")
	}
	if before.CurrentPlayer != after.CurrentPlayer {
		t.Errorf("current player %v, want %v", after.CurrentPlayer, before.CurrentPlayer)
	}
	if before.CapturedBlack != after.CapturedBlack || before.CapturedWhite != after.CapturedWhite {
		t.Error("capture tallies not restored")
	}
	if (before.LastMove == nil) != (after.LastMove == nil) {
		t.Fatal("last move presence differs")
	}
	if before.LastMove != nil && *before.LastMove != *after.LastMove {
		t.Errorf("last move %+v, want %+v", *after.LastMove, *before.LastMove)
	}
	if before.MoveCount != after.MoveCount {
		t.Errorf("move count %d, want %d", after.MoveCount, before.MoveCount)
	}
}

func TestUndoRestoresKoPointAndCaptures(t *testing.T) {
	e := koPosition(t)
	koBefore := e.KoPoint()
	capturedBefore := e.CapturedBlack()

	if _, err := e.MakeMove(8, 8, Black); err != nil {
		t.Fatalf("move rejected: %v", err)
	}
	if err := e.UndoMove(); err != nil {
		t.Fatalf("undo failed: %v", err)
	}

	ko := e.KoPoint()
	if ko == nil || *ko != *koBefore {
		t.Fatalf("ko point = %+v, want %+v", ko, koBefore)
	}
	if e.CapturedBlack() != capturedBefore {
		t.Fatalf("captured black = %d, want %d", e.CapturedBlack(), capturedBefore)
	}
}

func TestDoublePassEndsGameSinglePassDoesNot(t *testing.T) {
	e := New(9)
	if end := e.Pass(Black); end {
		t.Fatal("single pass reported game end")
	}
	if e.GameOver() {
		t.Fatal("GameOver true after one pass")
	}
	if end := e.Pass(White); !end {
		t.Fatal("double pass did not report game end")
	}
	if !e.GameOver() {
		t.Fatal("GameOver false after two passes")
	}
}

func TestMoveBetweenPassesResetsTermination(t *testing.T) {
	e := New(9)
	e.Pass(Black)
	e.MakeMove(4, 4, White)
	if end := e.Pass(Black); end {
		t.Fatal("pass after an intervening move reported game end")
	}
}

func TestEndToEndCaptureScenario(t *testing.T) {
	e := New(19)
	if _, err := e.MakeMove(3, 3, Black); err != nil {
		t.Fatalf("black (3,3): %v", err)
	}
	if _, err := e.MakeMove(3, 4, White); err != nil {
		t.Fatalf("white (3,4): %v", err)
	}
	if _, err := e.MakeMove(3, 5, Black); err != nil {
		t.Fatalf("black (3,5): %v", err)
	}

	g := e.FindGroup(3, 4)
	if len(g.Liberties) != 2 {
		t.Fatalf("white group liberties = %d, want 2", len(g.Liberties))
	}
	for _, want := range []Point{{2, 4}, {4, 4}} {
		if _, ok := g.Liberties[want]; !ok {
			t.Fatalf("liberty %+v missing from %v", want, g.Liberties)
		}
	}

	e.Pass(White) // white fails to respond
	if _, err := e.MakeMove(2, 4, Black); err != nil {
		t.Fatalf("black (2,4): %v", err)
	}
	e.Pass(White)

	res, err := e.MakeMove(4, 4, Black) // removes white's last liberty
	if err != nil {
		t.Fatalf("black (4,4): %v", err)
	}
	if res.Captured != 1 {
		t.Fatalf("captured = %d, want 1", res.Captured)
	}
	if e.CapturedWhite() != 1 {
		t.Fatalf("capturedWhite = %d, want 1", e.CapturedWhite())
	}
	// Capturing stone has liberties to spare, so no ko arises.
	if res.KoPoint != nil {
		t.Fatalf("unexpected ko point %+v", res.KoPoint)
	}
}

func TestAllValidMovesExcludesOccupiedAndSuicide(t *testing.T) {
	e := New(3)
	// Black holds everything except the two eyes at (0,0) and (2,2), so any
	// white placement is suicide and white has no legal move at all.
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if (x == 0 && y == 0) || (x == 2 && y == 2) {
				continue
			}
			e.board[y][x] = Black
		}
	}
	if moves := e.AllValidMoves(White); len(moves) != 0 {
		t.Fatalf("white has %d moves, want 0", len(moves))
	}
	if moves := e.AllValidMoves(Black); len(moves) != 2 {
		t.Fatalf("black has %d moves, want 2 (own eyes)", len(moves))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	e := New(9)
	e.MakeMove(4, 4, Black)
	c := e.Clone()

	c.MakeMove(5, 5, White)
	if e.StoneAt(5, 5) != Empty {
		t.Fatal("mutating clone changed the original")
	}
	if c.StoneAt(4, 4) != Black {
		t.Fatal("clone lost original position")
	}
}
