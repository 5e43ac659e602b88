package i

import (
	"context"

	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/google/uuid"
)

// GameArchive stores games once they are finished.
type GameArchive interface {
	// Save inserts or replaces the archived state of a game.
	Save(ctx context.Context, state *game.GameState) error

	// ByID retrieves an archived game.
	// Returns game.ErrNotFound if the game was never archived.
	ByID(ctx context.Context, id uuid.UUID) (*game.GameState, error)
}
