// Package gate coordinates the two interception layers, the outer
// pre-launch check and the inner load-time check, so a source unit is
// evaluated at most once per execution attempt. Enforcement mode and the
// marker store are explicit values threaded through the coordinator, never
// ambient globals.
package gate

import (
	"log/slog"

	"github.com/donphi/gatehouse/engine"
)

// Layer names the interception layer requesting a check.
type Layer string

const (
	LayerOuter Layer = "outer"
	LayerInner Layer = "inner"
)

// EnvMode is the environment variable collaborators read the enforcement
// mode from.
const EnvMode = "GATEHOUSE_MODE"

// Coordinator arbitrates scans between the two layers. The first layer to
// complete a scan records a verdict marker; the other layer replays the
// recorded verdict instead of re-scanning.
type Coordinator struct {
	engine *engine.Engine
	mode   engine.Mode
	store  MarkerStore
	logger *slog.Logger
}

// NewCoordinator wires a coordinator. A nil store disables verdict reuse; a
// nil logger falls back to slog.Default.
func NewCoordinator(eng *engine.Engine, mode engine.Mode, store MarkerStore, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{engine: eng, mode: mode, store: store, logger: logger}
}

// Mode returns the enforcement mode the coordinator was created with.
func (c *Coordinator) Mode() engine.Mode { return c.mode }

// CheckOuter runs the pre-launch check for a source unit.
func (c *Coordinator) CheckOuter(unit engine.SourceUnit) (*engine.ScanResult, engine.Decision, error) {
	return c.check(LayerOuter, unit)
}

// CheckInner runs the load-time check. A unit never seen by the outer layer
// gets its own full scan; a unit already decided this attempt replays the
// recorded verdict without re-invoking the dispatcher.
func (c *Coordinator) CheckInner(unit engine.SourceUnit) (*engine.ScanResult, engine.Decision, error) {
	return c.check(LayerInner, unit)
}

func (c *Coordinator) check(layer Layer, unit engine.SourceUnit) (*engine.ScanResult, engine.Decision, error) {
	if c.mode == engine.ModeOff {
		result := &engine.ScanResult{Status: engine.StatusAccepted}
		return result, engine.Decision{Status: engine.StatusAccepted}, nil
	}

	var key string
	if c.store != nil {
		key = MarkerKey(unit.Path, unit.Content)
		if status, ok := c.store.Lookup(key); ok {
			c.logger.Debug("verdict replayed from marker",
				slog.String("layer", string(layer)),
				slog.String("path", unit.Path),
				slog.String("status", string(status)),
			)
			result := &engine.ScanResult{Status: status, FromCache: true}
			return result, engine.Decide(c.mode, result), nil
		}
	}

	result, err := c.engine.Scan(unit, c.mode)
	if err != nil {
		return nil, engine.DecideError(c.mode), err
	}

	if c.store != nil {
		c.store.Record(key, result.Status)
	}
	return result, engine.Decide(c.mode, result), nil
}
