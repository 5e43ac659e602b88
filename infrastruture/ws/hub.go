// Package ws fans game events out to websocket subscribers and feeds their
// connects, disconnects and moves back into the game session manager.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/beka-birhanu/vinom-maze-race/service/i"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	defaultSendBufferSize = 64

	moveMessageType  = "move"
	stateMessageType = "state"
	errorEventType   = "error"
	stateEventType   = "game_state"
)

var _ i.Broadcaster = &Hub{}

// ErrHubClosed is returned when serving a connection after Close.
var ErrHubClosed = errors.New("hub closed")

// SessionHandler receives what subscribers do on their connection.
type SessionHandler interface {
	OnPlayerConnect(ctx context.Context, code string, playerID uuid.UUID) error
	OnPlayerDisconnect(ctx context.Context, code string, playerID uuid.UUID) error
	MovePlayer(ctx context.Context, gameID, playerID uuid.UUID, direction string) (*game.GameState, error)
	GetCurrentState(ctx context.Context, gameID uuid.UUID) (*game.GameState, error)
}

// clientMessage is a request sent by a subscriber.
type clientMessage struct {
	Type      string `json:"type" msgpack:"type"`
	Direction string `json:"direction,omitempty" msgpack:"direction,omitempty"`
}

// client is one websocket connection subscribed to a game channel.
type client struct {
	code     string
	playerID uuid.UUID
	conn     *websocket.Conn
	send     chan []byte
}

// Hub keeps the subscribers of every game channel.
type Hub struct {
	channels       map[string]map[*client]struct{}
	encoder        i.Encoder
	handler        SessionHandler
	upgrader       websocket.Upgrader
	sendBufferSize int
	closed         bool
	logger         i.Logger
	sync.RWMutex
}

// Config holds the parameters of a Hub.
type Config struct {
	Encoder        i.Encoder
	Logger         i.Logger
	CheckOrigin    func(r *http.Request) bool
	SendBufferSize int
}

// NewHub creates a hub. SetSessionHandler must be called before serving.
func NewHub(c *Config) *Hub {
	h := &Hub{
		channels:       make(map[string]map[*client]struct{}),
		encoder:        c.Encoder,
		logger:         c.Logger,
		sendBufferSize: c.SendBufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     c.CheckOrigin,
		},
	}
	if h.sendBufferSize <= 0 {
		h.sendBufferSize = defaultSendBufferSize
	}
	return h
}

// SetSessionHandler sets who is told about connects, disconnects and moves.
func (h *Hub) SetSessionHandler(handler SessionHandler) {
	h.Lock()
	defer h.Unlock()
	h.handler = handler
}

// Broadcast implements i.Broadcaster. Subscribers too slow to keep up are dropped.
func (h *Hub) Broadcast(code string, e i.Event) {
	payload, err := h.encoder.Marshal(e)
	if err != nil {
		h.logger.Error(fmt.Sprintf("encoding %s event for %s: %s", e.Type, code, err))
		return
	}

	var slow []*client
	h.RLock()
	for c := range h.channels[code] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.RUnlock()

	for _, c := range slow {
		h.logger.Warning(fmt.Sprintf("dropping slow subscriber %s of %s", c.playerID, code))
		h.unsubscribe(c)
	}
}

// Subscribers returns how many connections listen on code.
func (h *Hub) Subscribers(code string) int {
	h.RLock()
	defer h.RUnlock()
	return len(h.channels[code])
}

// Serve upgrades the request and subscribes playerID to the channel of gameID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, gameID, playerID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		code:     gameID.String(),
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, h.sendBufferSize),
	}
	if err := h.subscribe(c); err != nil {
		_ = conn.Close()
		return err
	}

	if err := h.handler.OnPlayerConnect(context.Background(), c.code, playerID); err != nil {
		h.unsubscribe(c)
		_ = conn.Close()
		return err
	}

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.Lock()
	h.closed = true
	var all []*client
	for _, subs := range h.channels {
		for c := range subs {
			all = append(all, c)
		}
	}
	h.Unlock()

	for _, c := range all {
		h.unsubscribe(c)
	}
}

func (h *Hub) subscribe(c *client) error {
	h.Lock()
	defer h.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	if h.handler == nil {
		return errors.New("hub has no session handler")
	}

	subs, ok := h.channels[c.code]
	if !ok {
		subs = make(map[*client]struct{})
		h.channels[c.code] = subs
	}
	subs[c] = struct{}{}
	return nil
}

// unsubscribe removes c and closes its send queue once.
func (h *Hub) unsubscribe(c *client) bool {
	h.Lock()
	defer h.Unlock()

	subs, ok := h.channels[c.code]
	if !ok {
		return false
	}
	if _, ok := subs[c]; !ok {
		return false
	}

	delete(subs, c)
	if len(subs) == 0 {
		delete(h.channels, c.code)
	}
	close(c.send)
	return true
}

// readPump handles requests of c until its connection breaks.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unsubscribe(c)
		_ = c.conn.Close()
		if err := h.handler.OnPlayerDisconnect(context.Background(), c.code, c.playerID); err != nil {
			h.logger.Error(fmt.Sprintf("disconnecting %s from %s: %s", c.playerID, c.code, err))
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warning(fmt.Sprintf("connection of %s on %s broke: %s", c.playerID, c.code, err))
			}
			return
		}

		var msg clientMessage
		if err := h.encoder.Unmarshal(raw, &msg); err != nil {
			h.reply(c, i.Event{Type: errorEventType, Error: "malformed message"})
			continue
		}
		h.handleMessage(c, msg)
	}
}

func (h *Hub) handleMessage(c *client, msg clientMessage) {
	gameID, err := uuid.Parse(c.code)
	if err != nil {
		h.reply(c, i.Event{Type: errorEventType, Error: "channel is not a game"})
		return
	}

	switch msg.Type {
	case moveMessageType:
		// Accepted moves reach everybody through Broadcast.
		if _, err := h.handler.MovePlayer(context.Background(), gameID, c.playerID, msg.Direction); err != nil {
			h.reply(c, i.Event{Type: errorEventType, Error: err.Error()})
		}
	case stateMessageType:
		state, err := h.handler.GetCurrentState(context.Background(), gameID)
		if err != nil {
			h.reply(c, i.Event{Type: errorEventType, Error: err.Error()})
			return
		}
		h.reply(c, i.Event{Type: stateEventType, State: state})
	default:
		h.reply(c, i.Event{Type: errorEventType, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

// reply queues e for c alone.
func (h *Hub) reply(c *client, e i.Event) {
	payload, err := h.encoder.Marshal(e)
	if err != nil {
		return
	}

	h.RLock()
	defer h.RUnlock()
	if _, ok := h.channels[c.code][c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// writePump drains the send queue of c and keeps the connection alive.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if h.encoder.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(frameType, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
