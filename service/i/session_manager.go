package i

import (
	"context"

	"github.com/google/uuid"
)

// SessionManager tracks which players are connected to which game channel.
// It never touches game state.
type SessionManager interface {
	// Register counts one more connection of playerID to code. It reports
	// whether this is the player's first live connection.
	Register(ctx context.Context, code string, playerID uuid.UUID) (bool, error)

	// Remove drops one connection of playerID from code. It reports whether
	// that was the player's last connection; removing an unknown player is
	// not an error.
	Remove(ctx context.Context, code string, playerID uuid.UUID) (bool, error)

	// Exists reports whether anyone is connected to code.
	Exists(ctx context.Context, code string) (bool, error)

	// Players lists the players connected to code.
	Players(ctx context.Context, code string) ([]uuid.UUID, error)

	// Clear drops every presence entry of code.
	Clear(ctx context.Context, code string) error
}
