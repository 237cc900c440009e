package notifier

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Level is how far spending has gone relative to the budget.
type Level int

const (
	LevelNone Level = iota
	LevelWarning
	LevelExceeded
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelExceeded:
		return "exceeded"
	default:
		return "none"
	}
}

var warningRatio = decimal.NewFromFloat(0.8)

// LevelFor classifies spent against a positive limit.
func LevelFor(spent, limit decimal.Decimal) Level {
	if !limit.IsPositive() {
		return LevelNone
	}
	ratio := spent.Div(limit)
	switch {
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return LevelExceeded
	case ratio.GreaterThanOrEqual(warningRatio):
		return LevelWarning
	default:
		return LevelNone
	}
}

// CrossingGuard remembers the last budget level seen per key so each
// upward crossing is reported once.
type CrossingGuard struct {
	mu     sync.Mutex
	levels map[string]Level
}

func NewCrossingGuard() *CrossingGuard {
	return &CrossingGuard{levels: make(map[string]Level)}
}

// Advance stores level for key and reports whether it is above the level
// stored before.
func (g *CrossingGuard) Advance(key string, level Level) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	prev := g.levels[key]
	g.levels[key] = level
	return level > prev
}

// Level returns the stored level for key.
func (g *CrossingGuard) Level(key string) Level {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[key]
}

// Reset forgets every key.
func (g *CrossingGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.levels)
}
