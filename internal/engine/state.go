package engine

// State is the full reconstructible engine state. It round-trips exactly
// through BoardState/LoadState and is what the persistence layer stores.
type State struct {
	Size          int          `json:"size" bson:"size"`
	Komi          float64      `json:"komi" bson:"komi"`
	Board         [][]Stone    `json:"board" bson:"board"`
	CurrentPlayer Stone        `json:"current_player" bson:"current_player"`
	CapturedBlack int          `json:"captured_black" bson:"captured_black"`
	CapturedWhite int          `json:"captured_white" bson:"captured_white"`
	LastMove      *MoveRecord  `json:"last_move,omitempty" bson:"last_move,omitempty"`
	KoPoint       *Point       `json:"ko_point,omitempty" bson:"ko_point,omitempty"`
	MoveLog       []MoveRecord `json:"move_log" bson:"move_log"`
	MoveCount     int          `json:"move_count" bson:"move_count"`
}

// BoardState exports a deep copy of the current state.
func (e *Engine) BoardState() State {
	log := make([]MoveRecord, len(e.moveLog))
	copy(log, e.moveLog)
	return State{
		Size:          e.size,
		Komi:          e.komi,
		Board:         copyBoard(e.board),
		CurrentPlayer: e.currentPlayer,
		CapturedBlack: e.capturedBlack,
		CapturedWhite: e.capturedWhite,
		LastMove:      e.LastMove(),
		KoPoint:       e.KoPoint(),
		MoveLog:       log,
		MoveCount:     len(e.moveLog),
	}
}

// LoadState replaces the engine state with the given export. The input is
// trusted as-is; position legality is not re-validated. History restarts from
// the loaded position, so moves made before the export are not undoable.
func (e *Engine) LoadState(s State) {
	size := s.Size
	if size <= 0 {
		size = len(s.Board)
	}
	e.Init(size)
	e.komi = s.Komi
	for y := 0; y < e.size && y < len(s.Board); y++ {
		for x := 0; x < e.size && x < len(s.Board[y]); x++ {
			e.board[y][x] = s.Board[y][x]
		}
	}
	if s.CurrentPlayer != Empty {
		e.currentPlayer = s.CurrentPlayer
	}
	e.capturedBlack = s.CapturedBlack
	e.capturedWhite = s.CapturedWhite
	if s.KoPoint != nil {
		ko := *s.KoPoint
		e.koPoint = &ko
	}
	if s.LastMove != nil {
		m := *s.LastMove
		e.lastMove = &m
	}
	e.moveLog = make([]MoveRecord, len(s.MoveLog))
	copy(e.moveLog, s.MoveLog)

	// Replace the Init snapshot with one matching the loaded position.
	e.history = e.history[:0]
	e.pushSnapshot()
}
