package game

import "goban/internal/engine"

// Move is a player's move as it arrives over the wire.
type Move struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Pass bool `json:"pass"`
}

// MoveOutcome is what a processed move produced, including the computer's
// reply when the opponent is the built-in selector.
type MoveOutcome struct {
	Move     Move          `json:"move"`
	Player   engine.Stone  `json:"player"`
	Captured int           `json:"captured"`
	KoPoint  *engine.Point `json:"ko_point,omitempty"`
	AIReply  *MoveOutcome  `json:"ai_reply,omitempty"`
	GameEnd  bool          `json:"game_end"`
	Score    *engine.Score `json:"score,omitempty"`
	State    engine.State  `json:"state"`
}
