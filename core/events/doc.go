// Package events defines the simulation events emitted on the event bus.
//
// Driver events: DriverAdded, DriverRemoved, DriverStatusChanged.
// Request events: RequestCreated, RequestQueued, RequestAssigned,
// TripPhaseChanged, RequestCompleted, RequestFailed.
// Engine events: TickCompleted, SimulationReset, ConfigUpdated.
package events
