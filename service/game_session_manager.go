package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/beka-birhanu/vinom-maze-race/service/i"
	"github.com/google/uuid"
)

const (
	minPlayers = 1
	maxPlayers = 4

	EventGameState    = "game_state"
	EventGameFinished = "game_finished"
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
)

var _ i.GameSessionManager = &GameSessionManager{}

// errArchivePending marks a finished game whose archiving has not succeeded yet.
var errArchivePending = errors.New("archive pending")

// GameSessionManager wires maze generation, the state store, movement
// validation and presence together, and publishes every change.
type GameSessionManager struct {
	store         *GameStore
	validator     *MovementValidator
	sessions      i.SessionManager
	broadcaster   i.Broadcaster
	archive       i.GameArchive
	mazeFactory   func(string) (*game.Maze, error)
	powerUpPlacer func(*game.Maze, ...game.Position) []game.PowerUp
	gameDuration  time.Duration
	timers        map[uuid.UUID]*time.Timer
	logger        i.Logger
	sync.Mutex
}

// Config holds the collaborators of a GameSessionManager.
type Config struct {
	Store         *GameStore
	Sessions      i.SessionManager
	Broadcaster   i.Broadcaster
	Archive       i.GameArchive // optional
	MazeFactory   func(string) (*game.Maze, error)
	PowerUpPlacer func(*game.Maze, ...game.Position) []game.PowerUp
	GameDuration  time.Duration // zero keeps games open until FinishGame
	Logger        i.Logger
}

// NewGameSessionManager creates a manager from c.
func NewGameSessionManager(c *Config) (*GameSessionManager, error) {
	if c.Store == nil || c.Sessions == nil || c.Broadcaster == nil || c.MazeFactory == nil || c.PowerUpPlacer == nil || c.Logger == nil {
		return nil, errors.New("incomplete game session manager config")
	}

	return &GameSessionManager{
		store:         c.Store,
		validator:     NewMovementValidator(c.Store),
		sessions:      c.Sessions,
		broadcaster:   c.Broadcaster,
		archive:       c.Archive,
		mazeFactory:   c.MazeFactory,
		powerUpPlacer: c.PowerUpPlacer,
		gameDuration:  c.GameDuration,
		timers:        make(map[uuid.UUID]*time.Timer),
		logger:        c.Logger,
	}, nil
}

// InitializeGame generates the maze, puts players on the corner spawns,
// scatters power-ups and opens the game for moves.
func (g *GameSessionManager) InitializeGame(ctx context.Context, req i.NewGameRequest) (*game.GameState, error) {
	if err := validatePlayers(req.PlayerIDs); err != nil {
		return nil, err
	}
	if req.GameID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing game id", game.ErrInvalidArgument)
	}
	if err := g.checkNotArchived(ctx, req.GameID); err != nil {
		return nil, err
	}

	state, err := g.store.Initialize(req.GameID, func() (*game.GameState, error) {
		m, err := g.mazeFactory(req.SizeClass)
		if err != nil {
			return nil, err
		}
		if !m.Reachable(m.Start(), m.Goal()) {
			g.logger.Warning(fmt.Sprintf("goal of game %s is not reachable from the start", req.GameID))
		}

		spawns := m.Corners()[:len(req.PlayerIDs)]
		return game.NewGameState(req.GameID, m, req.PlayerIDs, spawns, g.powerUpPlacer(m, spawns...))
	})
	if err != nil {
		g.logger.Error(fmt.Sprintf("initializing game %s: %s", req.GameID, err))
		return nil, err
	}

	g.armTimer(req.GameID)
	g.broadcaster.Broadcast(req.GameID.String(), i.Event{Type: EventGameState, State: state})
	g.logger.Info(fmt.Sprintf("started %s game %s for players: %v", state.SizeClass, req.GameID, req.PlayerIDs))
	return state, nil
}

// MovePlayer validates and applies one step of playerID.
func (g *GameSessionManager) MovePlayer(ctx context.Context, gameID, playerID uuid.UUID, direction string) (*game.GameState, error) {
	d, err := game.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	state, err := g.validator.Move(gameID, playerID, d)
	if err != nil {
		if !errors.Is(err, game.ErrInvalidMove) {
			g.logger.Warning(fmt.Sprintf("rejected move of player %s in game %s: %s", playerID, gameID, err))
		}
		return nil, err
	}

	g.broadcaster.Broadcast(gameID.String(), i.Event{Type: EventGameState, State: state})
	return state, nil
}

// GetCurrentState returns the live state of gameID, falling back to the
// archive for finished games.
func (g *GameSessionManager) GetCurrentState(ctx context.Context, gameID uuid.UUID) (*game.GameState, error) {
	state, err := g.store.Get(gameID)
	if err == nil || !errors.Is(err, game.ErrNotFound) || g.archive == nil {
		return state, err
	}

	archived, archiveErr := g.archive.ByID(ctx, gameID)
	if archiveErr != nil {
		if !errors.Is(archiveErr, game.ErrNotFound) {
			g.logger.Error(fmt.Sprintf("reading archived game %s: %s", gameID, archiveErr))
		}
		return nil, err
	}
	return archived, nil
}

// FinishGame closes gameID, archives it and clears its presence records.
// The live state is dropped only once archiving succeeded; until then calling
// FinishGame again retries the archive.
func (g *GameSessionManager) FinishGame(ctx context.Context, gameID uuid.UUID) (*game.GameState, error) {
	state, err := g.store.Update(gameID, func(s *game.GameState) error {
		switch s.Status {
		case game.StatusInProgress:
			s.Status = game.StatusFinished
			s.Version++
			return nil
		case game.StatusFinished:
			return errArchivePending
		default:
			return fmt.Errorf("%w: game %s is %s", game.ErrInvalidState, gameID, s.Status)
		}
	})
	retry := errors.Is(err, errArchivePending)
	if retry {
		state, err = g.store.Get(gameID)
	}
	if err != nil {
		return nil, err
	}

	if !retry {
		g.stopTimer(gameID)
		code := gameID.String()
		g.broadcaster.Broadcast(code, i.Event{Type: EventGameFinished, State: state})
		if err := g.sessions.Clear(ctx, code); err != nil {
			g.logger.Error(fmt.Sprintf("clearing presence of game %s: %s", gameID, err))
		}
	}

	if g.archive != nil {
		if err := g.archive.Save(ctx, state); err != nil {
			g.logger.Error(fmt.Sprintf("archiving game %s: %s", gameID, err))
			return state, fmt.Errorf("archiving game %s: %w", gameID, err)
		}
	}

	g.store.Retire(gameID)
	g.logger.Info(fmt.Sprintf("finished game %s", gameID))
	return state, nil
}

// OnPlayerConnect records a connection of playerID to the channel of code.
// The others hear about it only for the player's first live connection.
func (g *GameSessionManager) OnPlayerConnect(ctx context.Context, code string, playerID uuid.UUID) error {
	first, err := g.sessions.Register(ctx, code, playerID)
	if err != nil {
		g.logger.Error(fmt.Sprintf("registering player %s on %s: %s", playerID, code, err))
		return err
	}
	if !first {
		return nil
	}

	g.broadcaster.Broadcast(code, i.Event{Type: EventPlayerJoined, PlayerID: playerID.String()})
	return nil
}

// OnPlayerDisconnect drops one connection of playerID from code and tells the
// others once the player has no connection left. Game data is not touched.
func (g *GameSessionManager) OnPlayerDisconnect(ctx context.Context, code string, playerID uuid.UUID) error {
	removed, err := g.sessions.Remove(ctx, code, playerID)
	if err != nil {
		g.logger.Error(fmt.Sprintf("removing player %s from %s: %s", playerID, code, err))
		return err
	}
	if !removed {
		return nil
	}

	g.broadcaster.Broadcast(code, i.Event{Type: EventPlayerLeft, PlayerID: playerID.String()})
	return nil
}

// StopAll cancels every pending game timer.
func (g *GameSessionManager) StopAll() {
	g.Lock()
	defer g.Unlock()

	for id, t := range g.timers {
		t.Stop()
		delete(g.timers, id)
	}
}

func (g *GameSessionManager) armTimer(gameID uuid.UUID) {
	if g.gameDuration <= 0 {
		return
	}

	g.Lock()
	defer g.Unlock()
	var t *time.Timer
	t = time.AfterFunc(g.gameDuration, func() {
		g.Lock()
		if g.timers[gameID] == t {
			delete(g.timers, gameID)
		}
		g.Unlock()

		if _, err := g.FinishGame(context.Background(), gameID); err != nil && !errors.Is(err, game.ErrNotFound) {
			g.logger.Error(fmt.Sprintf("finishing expired game %s: %s", gameID, err))
		}
	})
	g.timers[gameID] = t
}

func (g *GameSessionManager) stopTimer(gameID uuid.UUID) {
	g.Lock()
	defer g.Unlock()

	if t, ok := g.timers[gameID]; ok {
		t.Stop()
		delete(g.timers, gameID)
	}
}

// checkNotArchived rejects ids of games finished earlier, possibly by another
// process sharing the archive.
func (g *GameSessionManager) checkNotArchived(ctx context.Context, gameID uuid.UUID) error {
	if g.archive == nil {
		return nil
	}

	_, err := g.archive.ByID(ctx, gameID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: game %s already finished", game.ErrConflict, gameID)
	case errors.Is(err, game.ErrNotFound):
		return nil
	default:
		g.logger.Error(fmt.Sprintf("checking archive for game %s: %s", gameID, err))
		return err
	}
}

func validatePlayers(playerIDs []uuid.UUID) error {
	if len(playerIDs) < minPlayers || len(playerIDs) > maxPlayers {
		return fmt.Errorf("%w: %d players, want %d to %d", game.ErrInvalidArgument, len(playerIDs), minPlayers, maxPlayers)
	}

	seen := make(map[uuid.UUID]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if id == uuid.Nil {
			return fmt.Errorf("%w: empty player id", game.ErrInvalidArgument)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: player %s listed twice", game.ErrInvalidArgument, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
