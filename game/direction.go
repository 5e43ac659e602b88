package game

import (
	"fmt"
	"strings"
)

// Direction is a unit move on the grid.
type Direction string

const (
	Up    Direction = "UP"
	Down  Direction = "DOWN"
	Left  Direction = "LEFT"
	Right Direction = "RIGHT"
)

var directionDeltas = map[Direction]Position{
	Up:    {X: 0, Y: -1},
	Down:  {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
	Right: {X: 1, Y: 0},
}

// Directions lists every direction in a stable order.
func Directions() []Direction {
	return []Direction{Up, Down, Left, Right}
}

// ParseDirection accepts a direction name in any letter case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := directionDeltas[d]; !ok {
		return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, s)
	}
	return d, nil
}

// Delta returns the coordinate offset of one step in d.
func (d Direction) Delta() Position {
	return directionDeltas[d]
}

// Apply returns the cell one step from pos in d.
func (d Direction) Apply(pos Position) Position {
	delta := d.Delta()
	return Position{X: pos.X + delta.X, Y: pos.Y + delta.Y}
}
