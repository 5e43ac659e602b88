package game

import (
	"errors"
	"fmt"
)

// Game-related errors. Callers match them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidMove       = errors.New("invalid move")
	ErrConflict          = errors.New("conflict")
	ErrInvalidState      = fmt.Errorf("%w: game is not in the required state", ErrConflict)
	ErrGenerationFailure = errors.New("generation failure")
)
