package model

import "fmt"

// SimulationConfig holds the grid and movement settings.
type SimulationConfig struct {
	GridWidth  int `json:"gridWidth"`
	GridHeight int `json:"gridHeight"`
	// DriverSpeed is in cells per tick.
	DriverSpeed int `json:"driverSpeed"`
	// TickInterval is a display hint in milliseconds.
	TickInterval int `json:"tickInterval"`
}

// DefaultSimulationConfig mirrors the defaults of the config package.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{GridWidth: 20, GridHeight: 20, DriverSpeed: 1, TickInterval: 1000}
}

// Validate checks that every field is positive.
func (c SimulationConfig) Validate() error {
	if c.GridWidth <= 0 || c.GridHeight <= 0 {
		return fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalidConfig, c.GridWidth, c.GridHeight)
	}
	if c.DriverSpeed < 1 {
		return fmt.Errorf("%w: driver speed must be >= 1, got %d", ErrInvalidConfig, c.DriverSpeed)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive, got %d", ErrInvalidConfig, c.TickInterval)
	}
	return nil
}

// Contains reports whether p lies on the configured grid.
func (c SimulationConfig) Contains(p Position) bool {
	return p.InGrid(c.GridWidth, c.GridHeight)
}

// ConfigPatch is a partial configuration update. Nil fields are left unchanged.
type ConfigPatch struct {
	GridWidth    *int `json:"gridWidth,omitempty"`
	GridHeight   *int `json:"gridHeight,omitempty"`
	DriverSpeed  *int `json:"driverSpeed,omitempty"`
	TickInterval *int `json:"tickInterval,omitempty"`
}

// Apply returns c with the patch applied.
func (p ConfigPatch) Apply(c SimulationConfig) SimulationConfig {
	if p.GridWidth != nil {
		c.GridWidth = *p.GridWidth
	}
	if p.GridHeight != nil {
		c.GridHeight = *p.GridHeight
	}
	if p.DriverSpeed != nil {
		c.DriverSpeed = *p.DriverSpeed
	}
	if p.TickInterval != nil {
		c.TickInterval = *p.TickInterval
	}
	return c
}

// SimulationStats aggregates request and driver counters.
type SimulationStats struct {
	TotalRequests  int     `json:"totalRequests"`
	CompletedRides int     `json:"completedRides"`
	FailedRides    int     `json:"failedRides"`
	AverageETA     float64 `json:"averageETA"`
	ActiveDrivers  int     `json:"activeDrivers"`
	TotalDrivers   int     `json:"totalDrivers"`
}
