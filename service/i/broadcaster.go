package i

import "github.com/beka-birhanu/vinom-maze-race/game"

// Event is a notification fanned out to every subscriber of a game channel.
type Event struct {
	Type     string          `json:"type" msgpack:"type"`
	PlayerID string          `json:"playerId,omitempty" msgpack:"playerId,omitempty"`
	State    *game.GameState `json:"state,omitempty" msgpack:"state,omitempty"`
	Error    string          `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Broadcaster delivers events to the subscribers of a game channel.
type Broadcaster interface {
	Broadcast(code string, e Event)
}

// Encoder serializes events for the wire.
type Encoder interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
	// Binary reports whether the payload must be sent as a binary frame.
	Binary() bool
}
