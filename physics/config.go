package physics

import (
	"log/slog"

	"github.com/lixenwraith/sgphysics/broadphase"
	"github.com/lixenwraith/sgphysics/fixed"
	"github.com/lixenwraith/sgphysics/status"
)

// Defaults
var (
	// DefaultTimeStep is 1/60 s
	DefaultTimeStep = fixed.FromRaw(1092)
	// DefaultFloorMaxAngle is about 45 degrees, in radians
	DefaultFloorMaxAngle = fixed.FromRaw(51471)
)

const (
	DefaultMaxIterations = 4
	DefaultMaxSlides     = 4
)

// Config holds per-world settings
type Config struct {
	// TimeStep is the only dt Step accepts
	TimeStep fixed.Num
	// CellSize of the broad-phase grid
	CellSize fixed.Num
	// MaxIterations bounds push-out passes per resolution
	MaxIterations int
	// SafeMargin is added to every push-out distance
	SafeMargin fixed.Num
	// Logger receives lifecycle debug records; nil discards
	Logger *slog.Logger
	// Registry receives the world's counters; nil creates a private one
	Registry *status.Registry
}

// DefaultConfig returns the settings a world uses when fields are zero
func DefaultConfig() Config {
	return Config{
		TimeStep:      DefaultTimeStep,
		CellSize:      broadphase.DefaultCellSize,
		MaxIterations: DefaultMaxIterations,
	}
}

// withDefaults fills zero fields
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TimeStep <= 0 {
		c.TimeStep = d.TimeStep
	}
	if c.CellSize <= 0 {
		c.CellSize = d.CellSize
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.SafeMargin < 0 {
		c.SafeMargin = 0
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Registry == nil {
		c.Registry = status.NewRegistry()
	}
	return c
}
