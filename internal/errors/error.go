package errors

import "errors"

// Rule violations reported by the engine. Never fatal: the caller decides how
// to surface them to the player.
var (
	ErrOutOfRange    = errors.New("move is out of board range")
	ErrOccupied      = errors.New("position is already occupied")
	ErrKoViolation   = errors.New("move violates the ko rule")
	ErrSuicide       = errors.New("move is suicide")
	ErrNothingToUndo = errors.New("nothing to undo")
)

var (
	ErrUserNotFound     = errors.New("user with provided username was not found")
	ErrSessionNotFound  = errors.New("session was not found")
	ErrCreateGameFailed = errors.New("create game failed")
	ErrJoinGameFailed   = errors.New("join game failed")
	ErrGameNotFound     = errors.New("game not found")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrGameFinished     = errors.New("game is already finished")
	ErrInternal         = errors.New("internal error")
)
