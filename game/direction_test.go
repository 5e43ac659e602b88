package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"UP", Up},
		{"down", Down},
		{" Left ", Left},
		{"rIGHT", Right},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			d, err := ParseDirection(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d)
		})
	}

	_, err := ParseDirection("NORTH")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestDirectionApply(t *testing.T) {
	from := Position{X: 5, Y: 5}
	assert.Equal(t, Position{X: 5, Y: 4}, Up.Apply(from))
	assert.Equal(t, Position{X: 5, Y: 6}, Down.Apply(from))
	assert.Equal(t, Position{X: 4, Y: 5}, Left.Apply(from))
	assert.Equal(t, Position{X: 6, Y: 5}, Right.Apply(from))
}
