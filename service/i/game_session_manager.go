package i

import (
	"context"

	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/google/uuid"
)

// NewGameRequest is what the lobby hands over when a game starts.
type NewGameRequest struct {
	GameID    uuid.UUID
	SizeClass string
	PlayerIDs []uuid.UUID
}

// GameSessionManager is the entry point transports call into.
type GameSessionManager interface {
	InitializeGame(ctx context.Context, req NewGameRequest) (*game.GameState, error)
	MovePlayer(ctx context.Context, gameID, playerID uuid.UUID, direction string) (*game.GameState, error)
	GetCurrentState(ctx context.Context, gameID uuid.UUID) (*game.GameState, error)
	FinishGame(ctx context.Context, gameID uuid.UUID) (*game.GameState, error)
	OnPlayerConnect(ctx context.Context, code string, playerID uuid.UUID) error
	OnPlayerDisconnect(ctx context.Context, code string, playerID uuid.UUID) error
}
