// Package gameapi provides structures and utilities for managing game requests and responses.
package gameapi

import (
	"github.com/beka-birhanu/vinom-maze-race/game"
)

// NewGameRequest represents a request to start a game.
// An empty GameID lets the server pick one.
type NewGameRequest struct {
	GameID    string   `json:"game_id"`
	SizeClass string   `json:"size_class" binding:"required"`
	PlayerIDs []string `json:"player_ids" binding:"required"`
}

// MoveRequest represents one step of the requesting player.
type MoveRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// GameStateResponse wraps the state of a game.
type GameStateResponse struct {
	State *game.GameState `json:"state"`
}
