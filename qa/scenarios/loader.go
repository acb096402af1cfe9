// Package scenarios loads YAML simulation scripts and runs them headless
// against a fresh engine.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/ridesim/core/dispatch"
	"github.com/kilianp07/ridesim/core/model"
)

// GridDef overrides the engine configuration. Zero fields keep the defaults.
type GridDef struct {
	Width        int `yaml:"grid_width"`
	Height       int `yaml:"grid_height"`
	DriverSpeed  int `yaml:"driver_speed"`
	HistoryLimit int `yaml:"history_limit"`
}

func (g GridDef) ToModel() model.SimulationConfig {
	cfg := model.DefaultSimulationConfig()
	if g.Width > 0 {
		cfg.GridWidth = g.Width
	}
	if g.Height > 0 {
		cfg.GridHeight = g.Height
	}
	if g.DriverSpeed > 0 {
		cfg.DriverSpeed = g.DriverSpeed
	}
	return cfg
}

type ScoringDef struct {
	FairnessWeight *float64 `yaml:"fairness_weight"`
	IdleWeight     *float64 `yaml:"idle_weight"`
	MaxIdleBonus   *float64 `yaml:"max_idle_bonus"`
}

func (s ScoringDef) ToModel() dispatch.Config {
	cfg := dispatch.DefaultConfig()
	if s.FairnessWeight != nil {
		cfg.FairnessWeight = *s.FairnessWeight
	}
	if s.IdleWeight != nil {
		cfg.IdleWeight = *s.IdleWeight
	}
	if s.MaxIdleBonus != nil {
		cfg.MaxIdleBonus = *s.MaxIdleBonus
	}
	return cfg
}

type RiderDef struct {
	Pickup  model.Position `yaml:"pickup"`
	Dropoff model.Position `yaml:"dropoff"`
}

type OnlineDef struct {
	Driver int  `yaml:"driver"`
	Online bool `yaml:"online"`
}

// Step is one scripted action. Exactly one action field should be set.
type Step struct {
	Tick         bool            `yaml:"tick,omitempty"`
	Ticks        int             `yaml:"ticks,omitempty"`
	AddDriver    *model.Position `yaml:"add_driver,omitempty"`
	AddRider     *RiderDef       `yaml:"add_rider,omitempty"`
	RemoveDriver int             `yaml:"remove_driver,omitempty"`
	RemoveRider  int             `yaml:"remove_rider,omitempty"`
	Request      int             `yaml:"request,omitempty"`
	SetOnline    *OnlineDef      `yaml:"set_online,omitempty"`
	// ExpectError marks a step whose failure is part of the script.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Expected holds the request counts checked after the run. Nil fields are
// not checked.
type Expected struct {
	Completed *int `yaml:"completed"`
	Failed    *int `yaml:"failed"`
	Waiting   *int `yaml:"waiting"`
	Assigned  *int `yaml:"assigned"`
}

type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Config      GridDef          `yaml:"config"`
	Scoring     ScoringDef       `yaml:"scoring"`
	Drivers     []model.Position `yaml:"drivers"`
	Steps       []Step           `yaml:"steps"`
	Expected    Expected         `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	return &sc, nil
}
