// Package encoder serializes broadcast events for the websocket hub.
package encoder

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beka-birhanu/vinom-maze-race/service/i"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	_ i.Encoder = &JSON{}
	_ i.Encoder = &Msgpack{}
)

// JSON encodes events as text frames.
type JSON struct{}

// Marshal implements i.Encoder.
func (JSON) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements i.Encoder.
func (JSON) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Binary implements i.Encoder.
func (JSON) Binary() bool { return false }

// Msgpack encodes events as compact binary frames.
type Msgpack struct{}

// Marshal implements i.Encoder.
func (Msgpack) Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal implements i.Encoder.
func (Msgpack) Unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// Binary implements i.Encoder.
func (Msgpack) Binary() bool { return true }

// New returns the encoder registered under name ("json" or "msgpack").
func New(name string) (i.Encoder, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return &JSON{}, nil
	case "msgpack":
		return &Msgpack{}, nil
	default:
		return nil, fmt.Errorf("unknown encoder %q", name)
	}
}
