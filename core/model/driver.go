package model

// DriverStatus is the dispatch state of a driver.
type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverOnTrip    DriverStatus = "on_trip"
	DriverOffline   DriverStatus = "offline"
)

// TripPhase tracks which leg of a trip a driver is on.
type TripPhase string

const (
	PhaseNone      TripPhase = "none"
	PhaseToPickup  TripPhase = "to_pickup"
	PhaseToDropoff TripPhase = "to_dropoff"
)

// Driver is a vehicle on the grid.
//
// A driver is on_trip exactly when AssignedRequest is set and TripPhase is
// to_pickup or to_dropoff. Target is only set while on_trip.
type Driver struct {
	ID DriverID `json:"id"`
	Position
	Status          DriverStatus `json:"status"`
	AssignedRequest *RequestID   `json:"assignedRequestId"`
	TripPhase       TripPhase    `json:"tripPhase"`
	Target          *Position    `json:"target,omitempty"`
	TotalTrips      int          `json:"totalTrips"`
	IdleTicks       int          `json:"idleTicks"`
}

// NewDriver returns an available driver at p.
func NewDriver(id DriverID, p Position) *Driver {
	return &Driver{ID: id, Position: p, Status: DriverAvailable, TripPhase: PhaseNone}
}

// Available reports whether the driver can take a new request.
func (d *Driver) Available() bool { return d.Status == DriverAvailable }

// Assign puts the driver on a trip towards pickup.
func (d *Driver) Assign(req RequestID, pickup Position) {
	d.Status = DriverOnTrip
	d.AssignedRequest = &req
	d.TripPhase = PhaseToPickup
	t := pickup
	d.Target = &t
	d.IdleTicks = 0
}

// HeadTo switches the driver to the dropoff leg.
func (d *Driver) HeadTo(dropoff Position) {
	d.TripPhase = PhaseToDropoff
	t := dropoff
	d.Target = &t
}

// Release returns the driver to the available pool. completed counts the
// trip towards TotalTrips.
func (d *Driver) Release(completed bool) {
	d.Status = DriverAvailable
	d.AssignedRequest = nil
	d.TripPhase = PhaseNone
	d.Target = nil
	d.IdleTicks = 0
	if completed {
		d.TotalTrips++
	}
}

// Clone returns a deep copy safe to hand out of the engine.
func (d *Driver) Clone() Driver {
	c := *d
	if d.AssignedRequest != nil {
		r := *d.AssignedRequest
		c.AssignedRequest = &r
	}
	if d.Target != nil {
		t := *d.Target
		c.Target = &t
	}
	return c
}
