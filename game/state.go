package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle stage of a game.
type Status string

const (
	StatusInitializing Status = "INITIALIZING"
	StatusInProgress   Status = "IN_PROGRESS"
	StatusFinished     Status = "FINISHED"
)

// Effect is a collected power-up that is active until ExpiresAt.
type Effect struct {
	Type      PowerUpType `json:"type" msgpack:"type" bson:"type"`
	ExpiresAt time.Time   `json:"expiresAt" msgpack:"expiresAt" bson:"expiresAt"`
}

// PlayerPosition is a player's live place and score within one game.
type PlayerPosition struct {
	PlayerID uuid.UUID `json:"playerId" msgpack:"playerId" bson:"playerId"`
	Position `bson:",inline" msgpack:",inline"`
	Score    int      `json:"score" msgpack:"score" bson:"score"`
	Effects  []Effect `json:"effects,omitempty" msgpack:"effects,omitempty" bson:"effects,omitempty"`
}

// GameState is the authoritative state of a single game.
// The maze is shared between copies since it never changes after creation.
type GameState struct {
	ID        uuid.UUID        `json:"gameId" msgpack:"gameId" bson:"_id"`
	Status    Status           `json:"status" msgpack:"status" bson:"status"`
	Version   int64            `json:"version" msgpack:"version" bson:"version"`
	SizeClass SizeClass        `json:"sizeClass" msgpack:"sizeClass" bson:"sizeClass"`
	Width     int              `json:"width" msgpack:"width" bson:"width"`
	Height    int              `json:"height" msgpack:"height" bson:"height"`
	Start     Position         `json:"start" msgpack:"start" bson:"start"`
	Goal      Position         `json:"goal" msgpack:"goal" bson:"goal"`
	Players   []PlayerPosition `json:"playerPositions" msgpack:"playerPositions" bson:"playerPositions"`
	PowerUps  []PowerUp        `json:"powerUps" msgpack:"powerUps" bson:"powerUps"`
	Layout    []string         `json:"layout" msgpack:"layout" bson:"layout"`

	maze *Maze
}

// NewGameState seeds a state for maze with players standing on the given
// spawn cells, in order. Every spawn must be passable.
func NewGameState(id uuid.UUID, m *Maze, players []uuid.UUID, spawns []Position, powerUps []PowerUp) (*GameState, error) {
	if len(spawns) < len(players) {
		return nil, fmt.Errorf("%w: %d players but only %d spawn cells", ErrInvalidArgument, len(players), len(spawns))
	}

	positions := make([]PlayerPosition, 0, len(players))
	for i, pID := range players {
		if !m.IsPassable(spawns[i]) {
			return nil, fmt.Errorf("%w: spawn %v is not passable", ErrGenerationFailure, spawns[i])
		}
		positions = append(positions, PlayerPosition{PlayerID: pID, Position: spawns[i]})
	}

	return &GameState{
		ID:        id,
		Status:    StatusInitializing,
		SizeClass: m.SizeClass(),
		Width:     m.Width(),
		Height:    m.Height(),
		Start:     m.Start(),
		Goal:      m.Goal(),
		Players:   positions,
		PowerUps:  append([]PowerUp{}, powerUps...),
		Layout:    m.Layout(),
		maze:      m,
	}, nil
}

// Maze returns the maze the game is played on. It is nil for states that
// were decoded from storage.
func (s *GameState) Maze() *Maze {
	return s.maze
}

// Player returns the position record of playerID.
func (s *GameState) Player(playerID uuid.UUID) (*PlayerPosition, bool) {
	for i := range s.Players {
		if s.Players[i].PlayerID == playerID {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// PowerUpAt returns the index of the power-up lying on pos, or -1.
func (s *GameState) PowerUpAt(pos Position) int {
	for i, p := range s.PowerUps {
		if p.Position == pos {
			return i
		}
	}
	return -1
}

// RemovePowerUp drops the power-up at index i.
func (s *GameState) RemovePowerUp(i int) PowerUp {
	p := s.PowerUps[i]
	s.PowerUps = append(s.PowerUps[:i:i], s.PowerUps[i+1:]...)
	return p
}

// Clone returns a deep copy that can be mutated without touching s.
func (s *GameState) Clone() *GameState {
	c := *s
	c.Players = make([]PlayerPosition, len(s.Players))
	for i, p := range s.Players {
		p.Effects = append([]Effect(nil), p.Effects...)
		c.Players[i] = p
	}
	c.PowerUps = append([]PowerUp{}, s.PowerUps...)
	c.Layout = append([]string(nil), s.Layout...)
	return &c
}
