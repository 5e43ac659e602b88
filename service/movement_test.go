package service

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveBlockedByWall(t *testing.T) {
	store := NewGameStore()
	m := openMaze(t, game.SizeMedium, game.Position{X: 5, Y: 4})
	player := uuid.New()
	gameID := seedGame(t, store, m, []uuid.UUID{player}, []game.Position{{X: 5, Y: 5}}, nil)
	validator := NewMovementValidator(store)

	_, err := validator.Move(gameID, player, game.Up)
	assert.True(t, errors.Is(err, game.ErrInvalidMove))

	state, err := store.Get(gameID)
	require.NoError(t, err)
	p, _ := state.Player(player)
	assert.Equal(t, game.Position{X: 5, Y: 5}, p.Position)
	assert.Zero(t, state.Version)
}

func TestMoveCollectsPowerUp(t *testing.T) {
	store := NewGameStore()
	m := openMaze(t, game.SizeMedium)
	player := uuid.New()
	powerUps := []game.PowerUp{
		{Position: game.Position{X: 6, Y: 5}, Type: game.PowerUpFreeze, Duration: 8},
		{Position: game.Position{X: 1, Y: 1}, Type: game.PowerUpSpeed, Duration: 5},
	}
	gameID := seedGame(t, store, m, []uuid.UUID{player}, []game.Position{{X: 5, Y: 5}}, powerUps)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	validator := NewMovementValidator(store)
	validator.now = func() time.Time { return now }

	state, err := validator.Move(gameID, player, game.Right)
	require.NoError(t, err)

	p, _ := state.Player(player)
	assert.Equal(t, game.Position{X: 6, Y: 5}, p.Position)
	assert.Equal(t, game.PowerUpFreeze.Value(), p.Score)
	require.Len(t, p.Effects, 1)
	assert.Equal(t, game.PowerUpFreeze, p.Effects[0].Type)
	assert.Equal(t, now.Add(8*time.Second), p.Effects[0].ExpiresAt)

	require.Len(t, state.PowerUps, 1)
	assert.Equal(t, -1, state.PowerUpAt(game.Position{X: 6, Y: 5}))
	assert.Equal(t, int64(1), state.Version)

	stored, err := store.Get(gameID)
	require.NoError(t, err)
	assert.Equal(t, state, stored)
}

func TestMoveExpiresEffects(t *testing.T) {
	store := NewGameStore()
	m := openMaze(t, game.SizeSmall)
	player := uuid.New()
	powerUps := []game.PowerUp{{Position: game.Position{X: 1, Y: 0}, Type: game.PowerUpGhost, Duration: 5}}
	gameID := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), powerUps)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	validator := NewMovementValidator(store)
	validator.now = func() time.Time { return now }

	state, err := validator.Move(gameID, player, game.Right)
	require.NoError(t, err)
	p, _ := state.Player(player)
	assert.Len(t, p.Effects, 1)

	now = now.Add(6 * time.Second)
	state, err = validator.Move(gameID, player, game.Right)
	require.NoError(t, err)
	p, _ = state.Player(player)
	assert.Empty(t, p.Effects)
	assert.Equal(t, game.PowerUpGhost.Value(), p.Score)
}

func TestMoveOutOfBounds(t *testing.T) {
	store := NewGameStore()
	m := openMaze(t, game.SizeSmall)
	player := uuid.New()
	gameID := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), nil)
	validator := NewMovementValidator(store)

	for _, d := range []game.Direction{game.Up, game.Left} {
		_, err := validator.Move(gameID, player, d)
		assert.True(t, errors.Is(err, game.ErrInvalidMove), d)
	}
}

func TestMoveErrors(t *testing.T) {
	store := NewGameStore()
	m := openMaze(t, game.SizeSmall)
	player := uuid.New()
	gameID := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), nil)
	validator := NewMovementValidator(store)

	t.Run("unknown game", func(t *testing.T) {
		_, err := validator.Move(uuid.New(), player, game.Down)
		assert.True(t, errors.Is(err, game.ErrNotFound))
	})

	t.Run("unknown player", func(t *testing.T) {
		_, err := validator.Move(gameID, uuid.New(), game.Down)
		assert.True(t, errors.Is(err, game.ErrNotFound))
	})

	t.Run("finished game", func(t *testing.T) {
		_, err := store.Update(gameID, func(s *game.GameState) error {
			s.Status = game.StatusFinished
			return nil
		})
		require.NoError(t, err)

		_, err = validator.Move(gameID, player, game.Down)
		assert.True(t, errors.Is(err, game.ErrInvalidState))
		assert.True(t, errors.Is(err, game.ErrConflict))
	})
}

func TestRandomWalkKeepsInvariants(t *testing.T) {
	gen := game.NewGenerator(99)
	rng := rand.New(rand.NewSource(99))

	for range 10 {
		m, err := gen.Generate("SMALL")
		require.NoError(t, err)

		store := NewGameStore()
		player := uuid.New()
		gameID := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), game.NewPlacer(99).Place(m, m.Start()))
		validator := NewMovementValidator(store)

		for range 300 {
			before, err := store.Get(gameID)
			require.NoError(t, err)
			from, _ := before.Player(player)

			d := game.Directions()[rng.Intn(4)]
			after, err := validator.Move(gameID, player, d)
			if err != nil {
				require.True(t, errors.Is(err, game.ErrInvalidMove))
				unchanged, err := store.Get(gameID)
				require.NoError(t, err)
				require.Equal(t, before, unchanged)
				continue
			}

			to, _ := after.Player(player)
			require.Equal(t, d.Apply(from.Position), to.Position)
			require.True(t, m.IsPassable(to.Position))
			require.Equal(t, -1, after.PowerUpAt(to.Position))
		}
	}
}

func TestConcurrentMovesDoNotLoseUpdates(t *testing.T) {
	for range 50 {
		store := NewGameStore()
		m := openMaze(t, game.SizeSmall)
		p1, p2 := uuid.New(), uuid.New()
		powerUps := []game.PowerUp{
			{Position: game.Position{X: 1, Y: 0}, Type: game.PowerUpFreeze, Duration: 5},
			{Position: game.Position{X: 8, Y: 9}, Type: game.PowerUpGhost, Duration: 5},
		}
		gameID := seedGame(t, store, m, []uuid.UUID{p1, p2}, m.Corners(), powerUps)
		validator := NewMovementValidator(store)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := validator.Move(gameID, p1, game.Right)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := validator.Move(gameID, p2, game.Left)
			assert.NoError(t, err)
		}()
		wg.Wait()

		state, err := store.Get(gameID)
		require.NoError(t, err)
		first, _ := state.Player(p1)
		second, _ := state.Player(p2)
		assert.Equal(t, game.Position{X: 1, Y: 0}, first.Position)
		assert.Equal(t, game.PowerUpFreeze.Value(), first.Score)
		assert.Equal(t, game.Position{X: 8, Y: 9}, second.Position)
		assert.Equal(t, game.PowerUpGhost.Value(), second.Score)
		assert.Empty(t, state.PowerUps)
		assert.Equal(t, int64(2), state.Version)
	}
}
