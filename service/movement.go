package service

import (
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/google/uuid"
)

// MovementValidator checks requested moves against the maze and commits the
// accepted ones through the store, one game at a time.
type MovementValidator struct {
	store *GameStore
	now   func() time.Time
}

// NewMovementValidator creates a validator working on store.
func NewMovementValidator(store *GameStore) *MovementValidator {
	return &MovementValidator{store: store, now: time.Now}
}

// Move steps playerID one cell in direction. A move off the grid or into a
// wall fails with game.ErrInvalidMove and leaves the state untouched. Landing
// on a power-up collects it in the same update.
func (v *MovementValidator) Move(gameID, playerID uuid.UUID, direction game.Direction) (*game.GameState, error) {
	return v.store.Update(gameID, func(s *game.GameState) error {
		if s.Status != game.StatusInProgress {
			return fmt.Errorf("%w: game %s is %s", game.ErrInvalidState, gameID, s.Status)
		}

		player, ok := s.Player(playerID)
		if !ok {
			return fmt.Errorf("%w: player %s is not in game %s", game.ErrNotFound, playerID, gameID)
		}

		m := s.Maze()
		if m == nil {
			return fmt.Errorf("%w: game %s has no maze", game.ErrGenerationFailure, gameID)
		}

		target := direction.Apply(player.Position)
		if !m.IsPassable(target) {
			return game.ErrInvalidMove
		}

		now := v.now()
		player.Position = target
		player.Effects = activeEffects(player.Effects, now)
		if i := s.PowerUpAt(target); i >= 0 {
			collected := s.RemovePowerUp(i)
			player.Score += collected.Type.Value()
			player.Effects = append(player.Effects, game.Effect{
				Type:      collected.Type,
				ExpiresAt: now.Add(time.Duration(collected.Duration) * time.Second),
			})
		}

		s.Version++
		return nil
	})
}

// activeEffects drops the effects that expired before now.
func activeEffects(effects []game.Effect, now time.Time) []game.Effect {
	kept := effects[:0]
	for _, e := range effects {
		if e.ExpiresAt.After(now) {
			kept = append(kept, e)
		}
	}
	return kept
}
