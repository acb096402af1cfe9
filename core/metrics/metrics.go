package metrics

import (
	"time"

	"github.com/kilianp07/ridesim/core/model"
)

// TickSnapshot is the state of the simulation at the end of a tick.
type TickSnapshot struct {
	Tick             uint64
	Time             time.Time
	Stats            model.SimulationStats
	QueueLength      int
	AvailableDrivers int
	Arrivals         int
	Assigned         int
}

// MetricsSink records tick snapshots.
type MetricsSink interface {
	RecordTick(s TickSnapshot) error
}

// AssignmentEvent describes one dispatch decision.
type AssignmentEvent struct {
	RequestID  model.RequestID
	DriverID   model.DriverID
	ETA        int
	Score      float64
	Candidates int
	Tick       uint64
	Time       time.Time
}

// AssignmentRecorder records dispatch decisions.
type AssignmentRecorder interface {
	RecordAssignment(ev AssignmentEvent) error
}

// OutcomeEvent describes a request reaching completed or failed.
type OutcomeEvent struct {
	RequestID model.RequestID
	RiderID   model.RiderID
	DriverID  *model.DriverID
	Status    model.RequestStatus
	Reason    string
	// Duration is the number of ticks between creation and the outcome.
	Duration uint64
	Tick     uint64
	Time     time.Time
}

// OutcomeRecorder records terminal request outcomes.
type OutcomeRecorder interface {
	RecordOutcome(ev OutcomeEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickSnapshot) error          { return nil }
func (NopSink) RecordAssignment(AssignmentEvent) error { return nil }
func (NopSink) RecordOutcome(OutcomeEvent) error       { return nil }
