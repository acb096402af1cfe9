package simulation

import (
	"fmt"
	"time"

	"github.com/kilianp07/ridesim/core/dispatch"
	"github.com/kilianp07/ridesim/core/model"
)

// State is a read-only copy of the whole simulation.
type State struct {
	Tick     uint64                 `json:"tick"`
	Drivers  []model.Driver         `json:"drivers"`
	Riders   []model.Rider          `json:"riders"`
	Requests []model.RideRequest    `json:"requests"`
	Config   model.SimulationConfig `json:"config"`
	Stats    model.SimulationStats  `json:"stats"`
}

// QueuedRequest is one entry of QueueInfo.
type QueuedRequest struct {
	ID        model.RequestID     `json:"id"`
	RiderID   model.RiderID       `json:"rider_id"`
	Status    model.RequestStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// QueueInfo describes the dispatch queue.
type QueueInfo struct {
	Length             int              `json:"queue_length"`
	Waiting            int              `json:"waiting_requests"`
	AvailableDrivers   int              `json:"available_drivers"`
	Requests           []QueuedRequest  `json:"queue_requests"`
	AvailableDriverIDs []model.DriverID `json:"available_driver_ids"`
}

// State returns a snapshot of every entity plus config and stats.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := State{Tick: e.tick, Config: e.cfg, Stats: e.stats}
	s.Drivers = e.driverCopies()
	s.Riders = make([]model.Rider, 0, e.riders.Len())
	for _, r := range e.riders.List() {
		s.Riders = append(s.Riders, *r)
	}
	s.Requests = e.requestCopies()
	return s
}

// QueueInfo returns the queue contents in dispatch order.
func (e *Engine) QueueInfo() QueueInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := e.requests.Queue().IDs()
	info := QueueInfo{
		Length:             len(ids),
		Requests:           make([]QueuedRequest, 0, len(ids)),
		AvailableDriverIDs: []model.DriverID{},
	}
	for _, id := range ids {
		req, ok := e.requests.Get(id)
		if !ok {
			continue
		}
		info.Requests = append(info.Requests, QueuedRequest{ID: req.ID, RiderID: req.RiderID, Status: req.Status, CreatedAt: req.CreatedAt})
	}
	for _, req := range e.requests.List() {
		if req.Status == model.RequestWaiting {
			info.Waiting++
		}
	}
	for _, d := range e.drivers.Available() {
		info.AvailableDriverIDs = append(info.AvailableDriverIDs, d.ID)
	}
	info.AvailableDrivers = len(info.AvailableDriverIDs)
	return info
}

// Stats returns the current statistics.
func (e *Engine) Stats() model.SimulationStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Config returns the current configuration.
func (e *Engine) Config() model.SimulationConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// CurrentTick returns the number of ticks run since the last reset.
func (e *Engine) CurrentTick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Drivers returns copies of all drivers ordered by id.
func (e *Engine) Drivers() []model.Driver {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.driverCopies()
}

// Driver returns one driver.
func (e *Engine) Driver(id model.DriverID) (model.Driver, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.drivers.Get(id)
	if !ok {
		return model.Driver{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return d.Clone(), nil
}

// Requests returns copies of all retained requests ordered by id.
func (e *Engine) Requests() []model.RideRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requestCopies()
}

// Request returns one request.
func (e *Engine) Request(id model.RequestID) (model.RideRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.requests.Get(id)
	if !ok {
		return model.RideRequest{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return r.Clone(), nil
}

// Scores ranks the available drivers for a pickup without assigning anyone.
func (e *Engine) Scores(pickup model.Position) ([]dispatch.DriverScore, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkPosition(pickup); err != nil {
		return nil, err
	}
	return e.requests.Scorer().Rank(pickup, e.drivers.Available(), e.cfg.DriverSpeed), nil
}

func (e *Engine) driverCopies() []model.Driver {
	list := e.drivers.List()
	out := make([]model.Driver, len(list))
	for i, d := range list {
		out[i] = d.Clone()
	}
	return out
}

func (e *Engine) requestCopies() []model.RideRequest {
	list := e.requests.List()
	out := make([]model.RideRequest, len(list))
	for i, r := range list {
		out[i] = r.Clone()
	}
	return out
}
