package events

import (
	"time"

	"github.com/kilianp07/ridesim/core/model"
)

// Event is implemented by every payload published by the engine.
type Event interface {
	Kind() string
	Stamp() Meta
}

// Meta carries the logical tick and wall time of an event.
type Meta struct {
	Tick uint64    `json:"tick"`
	Time time.Time `json:"time"`
}

// Stamp returns the event metadata.
func (m Meta) Stamp() Meta { return m }

type DriverAdded struct {
	Meta
	Driver model.Driver `json:"driver"`
}

type DriverRemoved struct {
	Meta
	Driver model.Driver `json:"driver"`
}

// DriverStatusChanged is published when a driver goes online or offline.
type DriverStatusChanged struct {
	Meta
	Driver model.Driver `json:"driver"`
}

type RequestCreated struct {
	Meta
	Request model.RideRequest `json:"request"`
}

// RequestQueued is published when no driver could take a new request.
// Position is 1-based.
type RequestQueued struct {
	Meta
	Request  model.RideRequest `json:"request"`
	Position int               `json:"position"`
}

type RequestAssigned struct {
	Meta
	Request    model.RideRequest `json:"request"`
	Driver     model.Driver      `json:"driver"`
	ETA        int               `json:"eta"`
	Score      float64           `json:"score"`
	Candidates int               `json:"candidates"`
}

type TripPhaseChanged struct {
	Meta
	Request model.RideRequest `json:"request"`
	Driver  model.Driver      `json:"driver"`
}

type RequestCompleted struct {
	Meta
	Request model.RideRequest `json:"request"`
	Driver  model.Driver      `json:"driver"`
}

type RequestFailed struct {
	Meta
	Request model.RideRequest `json:"request"`
	Reason  string            `json:"reason"`
}

// TickCompleted is published at the end of every tick.
type TickCompleted struct {
	Meta
	Stats       model.SimulationStats `json:"stats"`
	QueueLength int                   `json:"queue_length"`
	Available   int                   `json:"available_drivers"`
	Arrivals    int                   `json:"arrivals"`
	Assigned    int                   `json:"assigned"`
}

type SimulationReset struct {
	Meta
}

type ConfigUpdated struct {
	Meta
	Config model.SimulationConfig `json:"config"`
}

func (DriverAdded) Kind() string         { return "driver_added" }
func (DriverRemoved) Kind() string       { return "driver_removed" }
func (DriverStatusChanged) Kind() string { return "driver_status_changed" }
func (RequestCreated) Kind() string      { return "request_created" }
func (RequestQueued) Kind() string       { return "request_queued" }
func (RequestAssigned) Kind() string     { return "request_assigned" }
func (TripPhaseChanged) Kind() string    { return "trip_phase_changed" }
func (RequestCompleted) Kind() string    { return "request_completed" }
func (RequestFailed) Kind() string       { return "request_failed" }
func (TickCompleted) Kind() string       { return "tick_completed" }
func (SimulationReset) Kind() string     { return "simulation_reset" }
func (ConfigUpdated) Kind() string       { return "config_updated" }
