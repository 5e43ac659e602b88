package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameStore(t *testing.T) {
	m := openMaze(t, game.SizeSmall)
	player := uuid.New()

	t.Run("initialize opens the game", func(t *testing.T) {
		store := NewGameStore()
		gameID := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), nil)

		state, err := store.Get(gameID)
		require.NoError(t, err)
		assert.Equal(t, gameID, state.ID)
		assert.Equal(t, game.StatusInProgress, state.Status)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("double initialize conflicts", func(t *testing.T) {
		store := NewGameStore()
		gameID := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), nil)

		called := false
		_, err := store.Initialize(gameID, func() (*game.GameState, error) {
			called = true
			return nil, nil
		})
		assert.True(t, errors.Is(err, game.ErrConflict))
		assert.False(t, called)
	})

	t.Run("get unknown game", func(t *testing.T) {
		_, err := NewGameStore().Get(uuid.New())
		assert.True(t, errors.Is(err, game.ErrNotFound))
	})

	t.Run("failed seed releases the id", func(t *testing.T) {
		store := NewGameStore()
		gameID := uuid.New()
		_, err := store.Initialize(gameID, func() (*game.GameState, error) {
			return nil, game.ErrGenerationFailure
		})
		assert.True(t, errors.Is(err, game.ErrGenerationFailure))

		_, err = store.Get(gameID)
		assert.True(t, errors.Is(err, game.ErrNotFound))

		_, err = store.Initialize(gameID, func() (*game.GameState, error) {
			return game.NewGameState(gameID, m, []uuid.UUID{player}, m.Corners(), nil)
		})
		assert.NoError(t, err)
	})

	t.Run("rejected update leaves state unchanged", func(t *testing.T) {
		store := NewGameStore()
		gameID := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), nil)
		before, err := store.Get(gameID)
		require.NoError(t, err)

		_, err = store.Update(gameID, func(s *game.GameState) error {
			s.Players[0].Score = 100
			s.Version = 42
			return game.ErrInvalidMove
		})
		assert.True(t, errors.Is(err, game.ErrInvalidMove))

		after, err := store.Get(gameID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("returned states are copies", func(t *testing.T) {
		store := NewGameStore()
		gameID := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), nil)

		state, err := store.Get(gameID)
		require.NoError(t, err)
		state.Players[0].Score = 7

		fresh, err := store.Get(gameID)
		require.NoError(t, err)
		assert.Zero(t, fresh.Players[0].Score)
	})

	t.Run("remove", func(t *testing.T) {
		store := NewGameStore()
		gameID := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), nil)
		store.Remove(gameID)
		store.Remove(gameID)

		_, err := store.Get(gameID)
		assert.True(t, errors.Is(err, game.ErrNotFound))
		_, err = store.Update(gameID, func(*game.GameState) error { return nil })
		assert.True(t, errors.Is(err, game.ErrNotFound))
		assert.Zero(t, store.Len())
	})

	t.Run("retired id cannot be initialized again", func(t *testing.T) {
		store := NewGameStore()
		gameID := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), nil)
		store.Retire(gameID)

		_, err := store.Get(gameID)
		assert.True(t, errors.Is(err, game.ErrNotFound))

		called := false
		_, err = store.Initialize(gameID, func() (*game.GameState, error) {
			called = true
			return game.NewGameState(gameID, m, []uuid.UUID{player}, m.Corners(), nil)
		})
		assert.True(t, errors.Is(err, game.ErrConflict))
		assert.False(t, called)
		assert.Zero(t, store.Len())
	})
}

func TestGameStoreSerializesUpdates(t *testing.T) {
	m := openMaze(t, game.SizeSmall)
	store := NewGameStore()
	players := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	gameID := seedGame(t, store, m, players, m.Corners(), nil)

	const perPlayer = 200
	var wg sync.WaitGroup
	for idx := range players {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for range perPlayer {
				_, err := store.Update(gameID, func(s *game.GameState) error {
					s.Players[idx].Score++
					s.Version++
					return nil
				})
				assert.NoError(t, err)
			}
		}(idx)
	}
	wg.Wait()

	state, err := store.Get(gameID)
	require.NoError(t, err)
	for _, p := range state.Players {
		assert.Equal(t, perPlayer, p.Score)
	}
	assert.Equal(t, int64(perPlayer*len(players)), state.Version)
}

func TestGameStoreGamesAreIndependent(t *testing.T) {
	m := openMaze(t, game.SizeSmall)
	store := NewGameStore()
	player := uuid.New()
	slow := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), nil)
	fast := seedGame(t, store, m, []uuid.UUID{player}, m.Corners(), nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Update(slow, func(*game.GameState) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	_, err := store.Update(fast, func(s *game.GameState) error {
		s.Version++
		return nil
	})
	assert.NoError(t, err)

	close(release)
	<-done
}
