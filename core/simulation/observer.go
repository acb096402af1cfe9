package simulation

import (
	"github.com/kilianp07/ridesim/core/dispatch"
	"github.com/kilianp07/ridesim/core/events"
	"github.com/kilianp07/ridesim/core/model"
)

// observer turns request manager notifications into bus events. It runs
// under the engine lock.
type observer struct{ e *Engine }

func (o observer) RequestCreated(req model.RideRequest) {
	o.e.publish(events.RequestCreated{Meta: o.e.meta(), Request: req})
}

func (o observer) RequestQueued(req model.RideRequest, position int) {
	o.e.publish(events.RequestQueued{Meta: o.e.meta(), Request: req, Position: position})
}

func (o observer) RequestAssigned(req model.RideRequest, drv model.Driver, score dispatch.DriverScore, candidates int) {
	o.e.publish(events.RequestAssigned{
		Meta:       o.e.meta(),
		Request:    req,
		Driver:     drv,
		ETA:        score.ETA,
		Score:      score.Score,
		Candidates: candidates,
	})
}

func (o observer) TripPhaseChanged(req model.RideRequest, drv model.Driver) {
	o.e.publish(events.TripPhaseChanged{Meta: o.e.meta(), Request: req, Driver: drv})
}

func (o observer) RequestCompleted(req model.RideRequest, drv model.Driver) {
	o.e.publish(events.RequestCompleted{Meta: o.e.meta(), Request: req, Driver: drv})
}

func (o observer) RequestFailed(req model.RideRequest, reason string) {
	o.e.publish(events.RequestFailed{Meta: o.e.meta(), Request: req, Reason: reason})
}
