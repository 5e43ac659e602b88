package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/beka-birhanu/vinom-maze-race/service/i"
	"github.com/google/uuid"
)

var _ i.SessionManager = &SessionManager{}

// presence counts the live connections of each player on one game channel.
type presence struct {
	players map[uuid.UUID]int
	dropped bool
	sync.Mutex
}

// SessionManager keeps live presence in memory. Each code has its own lock;
// the record of a code disappears when its last player leaves.
type SessionManager struct {
	codes  map[string]*presence
	logger i.Logger
	sync.RWMutex
}

// NewSessionManager creates an empty in-memory session manager.
func NewSessionManager(logger i.Logger) *SessionManager {
	return &SessionManager{
		codes:  make(map[string]*presence),
		logger: logger,
	}
}

// Register implements i.SessionManager.
func (s *SessionManager) Register(_ context.Context, code string, playerID uuid.UUID) (bool, error) {
	for {
		p := s.presenceFor(code, true)
		p.Lock()
		if p.dropped {
			// Emptied and dropped between lookup and lock; take the new record.
			p.Unlock()
			continue
		}
		p.players[playerID]++
		first := p.players[playerID] == 1
		p.Unlock()

		s.logger.Info(fmt.Sprintf("player %s connected to %s", playerID, code))
		return first, nil
	}
}

// Remove implements i.SessionManager.
func (s *SessionManager) Remove(_ context.Context, code string, playerID uuid.UUID) (bool, error) {
	p := s.presenceFor(code, false)
	if p == nil {
		return false, nil
	}

	p.Lock()
	defer p.Unlock()
	if p.dropped {
		return false, nil
	}
	n, ok := p.players[playerID]
	if !ok {
		return false, nil
	}
	s.logger.Info(fmt.Sprintf("player %s disconnected from %s", playerID, code))
	if n > 1 {
		p.players[playerID] = n - 1
		return false, nil
	}

	delete(p.players, playerID)
	if len(p.players) == 0 {
		s.drop(code, p)
	}
	return true, nil
}

// Exists implements i.SessionManager.
func (s *SessionManager) Exists(_ context.Context, code string) (bool, error) {
	p := s.presenceFor(code, false)
	if p == nil {
		return false, nil
	}

	p.Lock()
	defer p.Unlock()
	return !p.dropped && len(p.players) > 0, nil
}

// Players implements i.SessionManager.
func (s *SessionManager) Players(_ context.Context, code string) ([]uuid.UUID, error) {
	p := s.presenceFor(code, false)
	if p == nil {
		return nil, nil
	}

	p.Lock()
	defer p.Unlock()
	if p.dropped {
		return nil, nil
	}
	players := make([]uuid.UUID, 0, len(p.players))
	for id := range p.players {
		players = append(players, id)
	}
	return players, nil
}

// Clear implements i.SessionManager.
func (s *SessionManager) Clear(_ context.Context, code string) error {
	p := s.presenceFor(code, false)
	if p == nil {
		return nil
	}

	p.Lock()
	defer p.Unlock()
	if !p.dropped {
		s.drop(code, p)
	}
	return nil
}

// presenceFor looks up the record of code, creating it when create is set.
func (s *SessionManager) presenceFor(code string, create bool) *presence {
	s.RLock()
	p, ok := s.codes[code]
	s.RUnlock()
	if ok || !create {
		return p
	}

	s.Lock()
	defer s.Unlock()
	if p, ok = s.codes[code]; ok {
		return p
	}
	p = &presence{players: make(map[uuid.UUID]int)}
	s.codes[code] = p
	return p
}

// drop removes the record of code. The caller holds p's lock.
func (s *SessionManager) drop(code string, p *presence) {
	p.dropped = true
	p.players = nil

	s.Lock()
	if s.codes[code] == p {
		delete(s.codes, code)
	}
	s.Unlock()
}
