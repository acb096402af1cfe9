package config

import (
	"fmt"

	"github.com/kilianp07/ridesim/core/model"
)

// SimulationConfig holds the grid, clock and seed settings of the engine.
type SimulationConfig struct {
	GridWidth      int              `json:"grid_width"`
	GridHeight     int              `json:"grid_height"`
	DriverSpeed    int              `json:"driver_speed"`
	TickIntervalMS int              `json:"tick_interval_ms"`
	AutoTick       bool             `json:"auto_tick"`
	HistoryLimit   *int             `json:"history_limit"`
	SeedDrivers    []model.Position `json:"seed_drivers"`
}

// DefaultHistoryLimit is used when history_limit is absent.
const DefaultHistoryLimit = 500

// DefaultSeedDrivers are the positions used by Initialize when none are given.
func DefaultSeedDrivers() []model.Position {
	return []model.Position{{X: 2, Y: 2}, {X: 15, Y: 8}, {X: 8, Y: 15}}
}

// SetDefaults fills unset fields.
func (c *SimulationConfig) SetDefaults() {
	def := model.DefaultSimulationConfig()
	if c.GridWidth == 0 {
		c.GridWidth = def.GridWidth
	}
	if c.GridHeight == 0 {
		c.GridHeight = def.GridHeight
	}
	if c.DriverSpeed == 0 {
		c.DriverSpeed = def.DriverSpeed
	}
	if c.TickIntervalMS == 0 {
		c.TickIntervalMS = def.TickInterval
	}
	if c.HistoryLimit == nil {
		n := DefaultHistoryLimit
		c.HistoryLimit = &n
	}
	if c.SeedDrivers == nil {
		c.SeedDrivers = DefaultSeedDrivers()
	}
}

// Model converts the section into the engine configuration.
func (c SimulationConfig) Model() model.SimulationConfig {
	return model.SimulationConfig{
		GridWidth:    c.GridWidth,
		GridHeight:   c.GridHeight,
		DriverSpeed:  c.DriverSpeed,
		TickInterval: c.TickIntervalMS,
	}
}

// History returns the number of terminal requests to retain. An explicit
// value of zero or less keeps all of them.
func (c SimulationConfig) History() int {
	if c.HistoryLimit == nil {
		return DefaultHistoryLimit
	}
	return *c.HistoryLimit
}

// Validate checks the grid and that every seed lies on it.
func (c SimulationConfig) Validate() error {
	m := c.Model()
	if err := m.Validate(); err != nil {
		return err
	}
	for i, p := range c.SeedDrivers {
		if !m.Contains(p) {
			return fmt.Errorf("simulation: seed driver %d at (%d,%d) is outside the grid", i, p.X, p.Y)
		}
	}
	return nil
}
