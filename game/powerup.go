package game

import (
	"math/rand"
	"sync"
	"time"
)

// PowerUpType is the effect granted when a power-up is collected.
type PowerUpType string

const (
	PowerUpSpeed  PowerUpType = "SPEED"
	PowerUpFreeze PowerUpType = "FREEZE"
	PowerUpShield PowerUpType = "SHIELD"
	PowerUpGhost  PowerUpType = "GHOST"
)

var powerUpValues = map[PowerUpType]int{
	PowerUpSpeed:  10,
	PowerUpFreeze: 15,
	PowerUpShield: 10,
	PowerUpGhost:  20,
}

// PowerUpTypes lists the closed set of power-up types.
func PowerUpTypes() []PowerUpType {
	return []PowerUpType{PowerUpSpeed, PowerUpFreeze, PowerUpShield, PowerUpGhost}
}

// Value is the score awarded for collecting a power-up of this type.
func (t PowerUpType) Value() int {
	return powerUpValues[t]
}

// Power-up batch limits.
const (
	MinPowerUps     = 5
	MaxPowerUps     = 10
	MinDuration     = 5 // seconds
	MaxDuration     = 10
	attemptsPerCell = 4
)

// PowerUp is a collectible effect sitting on a maze cell.
type PowerUp struct {
	Position `bson:",inline" msgpack:",inline"`
	Type     PowerUpType `json:"type" msgpack:"type" bson:"type"`
	Duration int         `json:"duration" msgpack:"duration" bson:"duration"`
}

// Placer scatters power-ups over a maze. It is safe for concurrent use.
type Placer struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// NewPlacer returns a placer seeded with seed. A zero seed uses the clock.
func NewPlacer(seed int64) *Placer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Placer{rng: rand.New(rand.NewSource(seed))}
}

// Place picks between MinPowerUps and MaxPowerUps power-ups on distinct
// passable cells, skipping any of the given start cells. Sampling gives up
// after attemptsPerCell tries per maze cell, so a maze with too few free
// cells yields a shorter batch instead of spinning forever.
func (p *Placer) Place(m *Maze, starts ...Position) []PowerUp {
	p.mu.Lock()
	defer p.mu.Unlock()

	target := MinPowerUps + p.rng.Intn(MaxPowerUps-MinPowerUps+1)
	taken := make(map[Position]struct{}, target+len(starts))
	for _, s := range starts {
		taken[s] = struct{}{}
	}

	types := PowerUpTypes()
	powerUps := make([]PowerUp, 0, target)
	maxAttempts := attemptsPerCell * m.Width() * m.Height()
	for attempts := 0; len(powerUps) < target && attempts < maxAttempts; attempts++ {
		pos := Position{X: p.rng.Intn(m.Width()), Y: p.rng.Intn(m.Height())}
		if !m.IsPassable(pos) {
			continue
		}
		if _, used := taken[pos]; used {
			continue
		}

		taken[pos] = struct{}{}
		powerUps = append(powerUps, PowerUp{
			Type:     types[p.rng.Intn(len(types))],
			Duration: MinDuration + p.rng.Intn(MaxDuration-MinDuration+1),
			Position: pos,
		})
	}
	return powerUps
}
