package game

import (
	"time"

	"goban/internal/engine"
)

// SaveSlot is the persisted match record: the full engine state plus the
// metadata needed to reconstruct the opponent configuration on load.
type SaveSlot struct {
	State       engine.State `json:"state" bson:"state"`
	Mode        string       `json:"mode" bson:"mode"`
	AIColor     engine.Stone `json:"ai_color" bson:"ai_color"`
	AILevel     int          `json:"ai_level" bson:"ai_level"`
	PlayerColor engine.Stone `json:"player_color" bson:"player_color"`
	SavedAt     time.Time    `json:"saved_at" bson:"saved_at"`
}
