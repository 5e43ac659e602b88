package service

import (
	"fmt"
	"sync"

	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/google/uuid"
)

// storeEntry holds one game behind its own lock so games never wait on each other.
type storeEntry struct {
	state   *game.GameState
	removed bool
	sync.Mutex
}

// GameStore keeps the authoritative state of every live game.
// Mutations of the same game are serialized; different games run in parallel.
type GameStore struct {
	games   map[uuid.UUID]*storeEntry
	retired map[uuid.UUID]struct{}
	sync.RWMutex
}

// NewGameStore creates an empty store.
func NewGameStore() *GameStore {
	return &GameStore{
		games:   make(map[uuid.UUID]*storeEntry),
		retired: make(map[uuid.UUID]struct{}),
	}
}

// Initialize reserves gameID and builds its state with seed. Readers block on
// the reservation until seed returns, then see the game IN_PROGRESS, or get
// ErrNotFound if seeding failed.
func (s *GameStore) Initialize(gameID uuid.UUID, seed func() (*game.GameState, error)) (*game.GameState, error) {
	entry := &storeEntry{}
	entry.Lock()
	defer entry.Unlock()

	s.Lock()
	if _, ok := s.games[gameID]; ok {
		s.Unlock()
		return nil, fmt.Errorf("%w: game %s already initialized", game.ErrConflict, gameID)
	}
	if _, ok := s.retired[gameID]; ok {
		s.Unlock()
		return nil, fmt.Errorf("%w: game %s already finished", game.ErrConflict, gameID)
	}
	s.games[gameID] = entry
	s.Unlock()

	state, err := seed()
	if err != nil {
		entry.removed = true
		s.Lock()
		delete(s.games, gameID)
		s.Unlock()
		return nil, err
	}

	state.ID = gameID
	state.Status = game.StatusInProgress
	entry.state = state
	return state.Clone(), nil
}

// Get returns a copy of the current state of gameID.
func (s *GameStore) Get(gameID uuid.UUID) (*game.GameState, error) {
	entry, err := s.lockEntry(gameID)
	if err != nil {
		return nil, err
	}
	defer entry.Unlock()

	return entry.state.Clone(), nil
}

// Update runs fn against a copy of the state of gameID and commits the copy
// only when fn succeeds, so a rejected mutation leaves no trace.
func (s *GameStore) Update(gameID uuid.UUID, fn func(*game.GameState) error) (*game.GameState, error) {
	entry, err := s.lockEntry(gameID)
	if err != nil {
		return nil, err
	}
	defer entry.Unlock()

	next := entry.state.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	entry.state = next
	return next.Clone(), nil
}

// Remove discards gameID. Callers already waiting on the game get ErrNotFound.
func (s *GameStore) Remove(gameID uuid.UUID) {
	s.remove(gameID, false)
}

// Retire discards gameID like Remove and keeps its id reserved, so the game
// can never be initialized again.
func (s *GameStore) Retire(gameID uuid.UUID) {
	s.remove(gameID, true)
}

func (s *GameStore) remove(gameID uuid.UUID, retire bool) {
	s.Lock()
	entry, ok := s.games[gameID]
	delete(s.games, gameID)
	if retire {
		s.retired[gameID] = struct{}{}
	}
	s.Unlock()
	if !ok {
		return
	}

	entry.Lock()
	entry.removed = true
	entry.state = nil
	entry.Unlock()
}

// Len returns the number of live games.
func (s *GameStore) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.games)
}

// lockEntry finds and locks the entry of gameID.
func (s *GameStore) lockEntry(gameID uuid.UUID) (*storeEntry, error) {
	s.RLock()
	entry, ok := s.games[gameID]
	s.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}

	entry.Lock()
	if entry.removed {
		entry.Unlock()
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	return entry, nil
}
