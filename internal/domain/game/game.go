package game

import (
	"time"

	"goban/internal/engine"
)

const (
	ModePvp      = "pvp"
	ModeComputer = "computer"
)

type Game struct {
	CreatedAt     time.Time    `json:"created_at" bson:"created_at"`
	Status        string       `json:"status" bson:"status"`
	BoardSize     int          `json:"board_size" bson:"board_size"`
	Komi          float64      `json:"komi" bson:"komi"`
	GameKeySecret string       `json:"game_key" bson:"game_key"` // unique key
	GameKeyPublic string       `json:"game_key_public" bson:"game_key_public"`
	Mode          string       `json:"mode" bson:"mode"` // pvp or computer
	AIColor       engine.Stone `json:"ai_color" bson:"ai_color"`
	AILevel       int          `json:"ai_level" bson:"ai_level"`
	PlayerBlack   string       `json:"player_black" bson:"player_black"`
	PlayerWhite   string       `json:"player_white" bson:"player_white"`
	Result        *GameResult  `json:"result,omitempty" bson:"result,omitempty"`
}

type GameResult struct {
	Score    engine.Score `json:"score" bson:"score"`
	Resigned string       `json:"resigned,omitempty" bson:"resigned,omitempty"` // color that resigned, if any
	EndedAt  time.Time    `json:"ended_at" bson:"ended_at"`
}

type CreateGameRequest struct {
	BoardSize      int     `json:"board_size"`
	Komi           float64 `json:"komi"`
	IsCreatorBlack bool    `json:"is_creator_black"`
	Mode           string  `json:"mode"`
	AILevel        int     `json:"ai_level"`
}

type GameCreateResponse struct {
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
	// Opening is the computer's first move when it holds the opening color.
	Opening *MoveOutcome `json:"opening,omitempty"`
}

type GameJoinRequest struct {
	GameKey string `json:"game_key"`
}

type ArchiveResponse struct {
	Games []Game `json:"games" bson:"games"`
	Pages int    `json:"pages" bson:"pages"`
}

type ArchiveYearsResponse struct {
	Years []int `json:"years" bson:"years"`
}
