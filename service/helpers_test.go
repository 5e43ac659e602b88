package service

import (
	"sync"
	"testing"

	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/beka-birhanu/vinom-maze-race/service/i"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}

// recordingBroadcaster keeps every broadcast event per code.
type recordingBroadcaster struct {
	events map[string][]i.Event
	sync.Mutex
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{events: make(map[string][]i.Event)}
}

func (b *recordingBroadcaster) Broadcast(code string, e i.Event) {
	b.Lock()
	defer b.Unlock()
	b.events[code] = append(b.events[code], e)
}

func (b *recordingBroadcaster) of(code string) []i.Event {
	b.Lock()
	defer b.Unlock()
	return append([]i.Event(nil), b.events[code]...)
}

func (b *recordingBroadcaster) types(code string) []string {
	var types []string
	for _, e := range b.of(code) {
		types = append(types, e.Type)
	}
	return types
}

// openMaze builds a width x height maze of passable cells except walls.
func openMaze(t *testing.T, sc game.SizeClass, walls ...game.Position) *game.Maze {
	t.Helper()
	width, height := sc.Dimensions()
	grid := make([][]game.Cell, height)
	for y := range grid {
		grid[y] = make([]game.Cell, width)
	}
	for _, w := range walls {
		grid[w.Y][w.X] = game.Wall
	}

	m, err := game.NewMaze(sc, grid, game.Position{}, game.Position{X: width - 1, Y: height - 1})
	require.NoError(t, err)
	return m
}

// seedGame puts a game straight into the store with players on spawns.
func seedGame(t *testing.T, store *GameStore, m *game.Maze, players []uuid.UUID, spawns []game.Position, powerUps []game.PowerUp) uuid.UUID {
	t.Helper()
	gameID := uuid.New()
	_, err := store.Initialize(gameID, func() (*game.GameState, error) {
		return game.NewGameState(gameID, m, players, spawns, powerUps)
	})
	require.NoError(t, err)
	return gameID
}
