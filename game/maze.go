/*
Package game holds the domain of a maze race: the maze grid, power-ups,
directions and the authoritative per-game state.

Mazes use an open-cell model: every cell is either passable or a wall, and
walls are scattered independently at random. Nothing guarantees the goal is
reachable from the start; Reachable is provided so callers can detect it.
*/
package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Cell is a single maze cell.
type Cell int8

const (
	Passable Cell = 0
	Wall     Cell = 1
)

// WallProbability is the chance of any generated cell being a wall.
const WallProbability = 0.25

// SizeClass is a named maze dimension.
type SizeClass string

const (
	SizeSmall  SizeClass = "SMALL"
	SizeMedium SizeClass = "MEDIUM"
	SizeLarge  SizeClass = "LARGE"
)

var sizeDimensions = map[SizeClass]struct {
	width  int
	height int
}{
	SizeSmall:  {width: 10, height: 10},
	SizeMedium: {width: 20, height: 20},
	SizeLarge:  {width: 30, height: 30},
}

// ParseSizeClass accepts a size class name in any letter case.
func ParseSizeClass(s string) (SizeClass, error) {
	sc := SizeClass(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := sizeDimensions[sc]; !ok {
		return "", fmt.Errorf("%w: unknown size class %q", ErrInvalidArgument, s)
	}
	return sc, nil
}

// Dimensions returns the width and height mapped to the size class.
func (s SizeClass) Dimensions() (int, int) {
	d := sizeDimensions[s]
	return d.width, d.height
}

// Position is a grid coordinate. X grows to the right and Y grows down.
type Position struct {
	X int `json:"x" msgpack:"x" bson:"x"`
	Y int `json:"y" msgpack:"y" bson:"y"`
}

// Maze is an immutable grid of passable and wall cells.
type Maze struct {
	sizeClass SizeClass
	width     int
	height    int
	grid      [][]Cell
	start     Position
	goal      Position
}

// NewMaze builds a maze from an explicit grid. Rows must all be width wide.
func NewMaze(sizeClass SizeClass, grid [][]Cell, start, goal Position) (*Maze, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrGenerationFailure)
	}

	width := len(grid[0])
	cells := make([][]Cell, len(grid))
	for row := range grid {
		if len(grid[row]) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrGenerationFailure, row, len(grid[row]), width)
		}
		cells[row] = append([]Cell(nil), grid[row]...)
	}

	m := &Maze{
		sizeClass: sizeClass,
		width:     width,
		height:    len(cells),
		grid:      cells,
		start:     start,
		goal:      goal,
	}
	if !m.InBound(start) || !m.InBound(goal) {
		return nil, fmt.Errorf("%w: start or goal outside the grid", ErrGenerationFailure)
	}
	return m, nil
}

func (m *Maze) SizeClass() SizeClass { return m.sizeClass }
func (m *Maze) Width() int           { return m.width }
func (m *Maze) Height() int          { return m.height }
func (m *Maze) Start() Position      { return m.start }
func (m *Maze) Goal() Position       { return m.goal }

// InBound reports whether pos lies inside [0,width)x[0,height).
func (m *Maze) InBound(pos Position) bool {
	return pos.X >= 0 && pos.X < m.width && pos.Y >= 0 && pos.Y < m.height
}

// IsPassable reports whether pos is inside the maze and not a wall.
func (m *Maze) IsPassable(pos Position) bool {
	return m.InBound(pos) && m.grid[pos.Y][pos.X] == Passable
}

// Cell returns the cell at pos. pos must be in bound.
func (m *Maze) Cell(pos Position) Cell {
	return m.grid[pos.Y][pos.X]
}

// PassableCount returns how many cells a player may occupy.
func (m *Maze) PassableCount() int {
	n := 0
	for _, row := range m.grid {
		for _, c := range row {
			if c == Passable {
				n++
			}
		}
	}
	return n
}

// Corners returns the four corner cells in spawn order.
func (m *Maze) Corners() []Position {
	return []Position{
		{X: 0, Y: 0},
		{X: m.width - 1, Y: m.height - 1},
		{X: 0, Y: m.height - 1},
		{X: m.width - 1, Y: 0},
	}
}

// Layout serializes the grid as one string of 0/1 digits per row.
func (m *Maze) Layout() []string {
	rows := make([]string, m.height)
	var sb strings.Builder
	for y, row := range m.grid {
		sb.Reset()
		for _, c := range row {
			sb.WriteByte('0' + byte(c))
		}
		rows[y] = sb.String()
	}
	return rows
}

// Reachable runs a breadth-first search over passable cells.
func (m *Maze) Reachable(from, to Position) bool {
	if !m.IsPassable(from) || !m.IsPassable(to) {
		return false
	}

	visited := make([]bool, m.width*m.height)
	queue := []Position{from}
	visited[from.Y*m.width+from.X] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return true
		}
		for _, d := range Directions() {
			next := d.Apply(cur)
			if !m.IsPassable(next) || visited[next.Y*m.width+next.X] {
				continue
			}
			visited[next.Y*m.width+next.X] = true
			queue = append(queue, next)
		}
	}
	return false
}

// String provides a textual representation of the maze.
func (m *Maze) String() string {
	var sb strings.Builder
	sb.WriteString("+" + strings.Repeat("-", m.width) + "+\n")
	for y, row := range m.grid {
		sb.WriteByte('|')
		for x, c := range row {
			pos := Position{X: x, Y: y}
			switch {
			case pos == m.start:
				sb.WriteByte('S')
			case pos == m.goal:
				sb.WriteByte('G')
			case c == Wall:
				sb.WriteByte('#')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("+" + strings.Repeat("-", m.width) + "+\n")
	return sb.String()
}

// Generator builds random mazes. It is safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// NewGenerator returns a generator seeded with seed. A zero seed uses the clock.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate creates a maze for the named size class. Every cell is a wall with
// probability WallProbability, except the four corners which stay passable so
// the start, the goal and every spawn point can be occupied.
func (g *Generator) Generate(sizeClass string) (*Maze, error) {
	sc, err := ParseSizeClass(sizeClass)
	if err != nil {
		return nil, err
	}
	width, height := sc.Dimensions()

	grid := make([][]Cell, height)
	g.mu.Lock()
	for y := range grid {
		grid[y] = make([]Cell, width)
		for x := range grid[y] {
			if g.rng.Float64() < WallProbability {
				grid[y][x] = Wall
			}
		}
	}
	g.mu.Unlock()

	start := Position{X: 0, Y: 0}
	goal := Position{X: width - 1, Y: height - 1}
	m, err := NewMaze(sc, grid, start, goal)
	if err != nil {
		return nil, err
	}
	for _, c := range m.Corners() {
		m.grid[c.Y][c.X] = Passable
	}
	return m, nil
}
