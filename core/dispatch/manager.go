package dispatch

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/ridesim/core/logger"
	"github.com/kilianp07/ridesim/core/model"
	"github.com/kilianp07/ridesim/core/registry"
	infralogger "github.com/kilianp07/ridesim/infra/logger"
)

// Observer is notified of every request state change, in order. Calls are
// made while the owning engine holds its lock and must not block.
type Observer interface {
	RequestCreated(req model.RideRequest)
	RequestQueued(req model.RideRequest, position int)
	RequestAssigned(req model.RideRequest, drv model.Driver, score DriverScore, candidates int)
	TripPhaseChanged(req model.RideRequest, drv model.Driver)
	RequestCompleted(req model.RideRequest, drv model.Driver)
	RequestFailed(req model.RideRequest, reason string)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) RequestCreated(model.RideRequest)                                   {}
func (NopObserver) RequestQueued(model.RideRequest, int)                               {}
func (NopObserver) RequestAssigned(model.RideRequest, model.Driver, DriverScore, int) {}
func (NopObserver) TripPhaseChanged(model.RideRequest, model.Driver)                   {}
func (NopObserver) RequestCompleted(model.RideRequest, model.Driver)                   {}
func (NopObserver) RequestFailed(model.RideRequest, string)                            {}

// Clock returns the current logical tick and wall time.
type Clock func() (uint64, time.Time)

// Tally holds the request counters used for statistics.
type Tally struct {
	Total       int
	Completed   int
	Failed      int
	Assignments int
	ETASum      int
}

// AverageETA is the mean ETA over all assignments.
func (t Tally) AverageETA() float64 {
	if t.Assignments == 0 {
		return 0
	}
	return float64(t.ETASum) / float64(t.Assignments)
}

// RequestManager owns ride requests and their transitions
// waiting -> assigned -> completed|failed. It is not safe for concurrent use.
type RequestManager struct {
	drivers  *registry.Drivers
	queue    *Queue
	scorer   Scorer
	speed    int
	requests map[model.RequestID]*model.RideRequest
	active   map[model.RiderID]model.RequestID
	nextID   model.RequestID
	tally    Tally
	obs      Observer
	clock    Clock
	log      logger.Logger
}

// NewRequestManager creates a manager dispatching onto drivers.
func NewRequestManager(drivers *registry.Drivers, scorer Scorer, speed int, obs Observer, clock Clock, log logger.Logger) *RequestManager {
	if obs == nil {
		obs = NopObserver{}
	}
	if clock == nil {
		clock = func() (uint64, time.Time) { return 0, time.Now() }
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	m := &RequestManager{
		drivers: drivers,
		queue:   NewQueue(),
		scorer:  scorer,
		speed:   speed,
		obs:     obs,
		clock:   clock,
		log:     log,
	}
	m.Reset()
	return m
}

// SetSpeed updates the driver speed used for ETA.
func (m *RequestManager) SetSpeed(speed int) { m.speed = speed }

// Scorer returns the scorer in use.
func (m *RequestManager) Scorer() Scorer { return m.scorer }

// Queue exposes the dispatch queue for read access.
func (m *RequestManager) Queue() *Queue { return m.queue }

// Tally returns a copy of the request counters.
func (m *RequestManager) Tally() Tally { return m.tally }

// Create opens a request for rider and tries to dispatch it immediately.
// When no driver is available the request is queued.
func (m *RequestManager) Create(rider *model.Rider) (*model.RideRequest, error) {
	if id, ok := m.active[rider.ID]; ok {
		return nil, fmt.Errorf("%w: %s holds %s", model.ErrActiveRequest, rider.ID, id)
	}
	tick, now := m.clock()
	req := &model.RideRequest{
		ID:          m.nextID,
		RiderID:     rider.ID,
		Status:      model.RequestWaiting,
		Pickup:      rider.Pickup,
		Dropoff:     rider.Dropoff,
		CreatedTick: tick,
		UpdatedTick: tick,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.nextID++
	m.requests[req.ID] = req
	m.active[rider.ID] = req.ID
	m.tally.Total++
	requestsTotal.WithLabelValues(string(model.RequestWaiting)).Inc()
	m.obs.RequestCreated(req.Clone())

	if !m.TryDispatch(req) {
		m.queue.Enqueue(req.ID)
		queueLength.Set(float64(m.queue.Len()))
		m.log.Infof("%s queued at position %d", req.ID, m.queue.Len())
		m.obs.RequestQueued(req.Clone(), m.queue.Len())
	}
	return req, nil
}

// TryDispatch assigns the best available driver to a waiting request.
// It returns false when no driver is available.
func (m *RequestManager) TryDispatch(req *model.RideRequest) bool {
	if req.Status != model.RequestWaiting {
		return false
	}
	candidates := m.drivers.Available()
	best, ok := m.scorer.Select(req.Pickup, candidates, m.speed)
	if !ok {
		return false
	}
	drv, _ := m.drivers.Get(best.DriverID)
	tick, now := m.clock()
	if err := req.Transition(model.RequestAssigned, tick, now); err != nil {
		m.log.Errorf("dispatch %s: %v", req.ID, err)
		return false
	}
	drv.Assign(req.ID, req.Pickup)
	id := drv.ID
	req.DriverID = &id
	req.ETA = best.ETA
	m.tally.Assignments++
	m.tally.ETASum += best.ETA

	assignmentsTotal.Inc()
	assignmentETA.Observe(float64(best.ETA))
	requestsTotal.WithLabelValues(string(model.RequestAssigned)).Inc()
	m.log.Debugw("request assigned", map[string]any{
		"request":    req.ID.String(),
		"driver":     drv.ID.String(),
		"eta":        best.ETA,
		"score":      best.Score,
		"candidates": len(candidates),
	})
	m.obs.RequestAssigned(req.Clone(), drv.Clone(), best, len(candidates))
	return true
}

// DrainQueue dispatches queued requests in arrival order while drivers are
// available. A request that cannot be dispatched goes back to the head and
// draining stops. It returns the number of requests assigned.
func (m *RequestManager) DrainQueue() int {
	assigned := 0
	for m.queue.Len() > 0 && len(m.drivers.Available()) > 0 {
		id, _ := m.queue.DequeueNext()
		req, ok := m.requests[id]
		if !ok || req.Status != model.RequestWaiting {
			m.log.Warnf("dropping stale queue entry %s", id)
			continue
		}
		if !m.TryDispatch(req) {
			m.queue.PushFront(id)
			break
		}
		assigned++
	}
	queueLength.Set(float64(m.queue.Len()))
	return assigned
}

// Arrive handles a driver reaching its target. On the pickup leg the driver
// turns towards the dropoff; if that is the same cell the trip completes at
// once. It returns the completed request, if any.
func (m *RequestManager) Arrive(drv *model.Driver) (*model.RideRequest, error) {
	if drv.AssignedRequest == nil {
		return nil, fmt.Errorf("%w: %s has no assigned request", model.ErrInvalidTransition, drv.ID)
	}
	req, ok := m.requests[*drv.AssignedRequest]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, *drv.AssignedRequest)
	}
	switch drv.TripPhase {
	case model.PhaseToPickup:
		drv.HeadTo(req.Dropoff)
		tick, now := m.clock()
		req.UpdatedTick, req.UpdatedAt = tick, now
		m.obs.TripPhaseChanged(req.Clone(), drv.Clone())
		if drv.Position != req.Dropoff {
			return nil, nil
		}
		fallthrough
	case model.PhaseToDropoff:
		tick, now := m.clock()
		if err := req.Transition(model.RequestCompleted, tick, now); err != nil {
			return nil, err
		}
		drv.Release(true)
		delete(m.active, req.RiderID)
		m.tally.Completed++
		requestsTotal.WithLabelValues(string(model.RequestCompleted)).Inc()
		m.log.Debugw("request completed", map[string]any{"request": req.ID.String(), "driver": drv.ID.String()})
		m.obs.RequestCompleted(req.Clone(), drv.Clone())
		return req, nil
	default:
		return nil, fmt.Errorf("%w: %s in phase %s", model.ErrInvalidTransition, drv.ID, drv.TripPhase)
	}
}

// Fail moves a non-terminal request to failed. A waiting request leaves the
// queue; an assigned request releases its driver with idle ticks reset.
// It returns the released driver, if any.
func (m *RequestManager) Fail(req *model.RideRequest, reason string) (*model.Driver, error) {
	tick, now := m.clock()
	prev := req.Status
	if err := req.Transition(model.RequestFailed, tick, now); err != nil {
		return nil, err
	}
	var released *model.Driver
	switch prev {
	case model.RequestWaiting:
		m.queue.RemoveIfPresent(req.ID)
		queueLength.Set(float64(m.queue.Len()))
	case model.RequestAssigned:
		if req.DriverID != nil {
			if drv, ok := m.drivers.Get(*req.DriverID); ok && drv.AssignedRequest != nil && *drv.AssignedRequest == req.ID {
				drv.Release(false)
				released = drv
			}
		}
	}
	req.Reason = reason
	delete(m.active, req.RiderID)
	m.tally.Failed++
	requestsTotal.WithLabelValues(string(model.RequestFailed)).Inc()
	m.log.Infof("%s failed: %s", req.ID, reason)
	m.obs.RequestFailed(req.Clone(), reason)
	return released, nil
}

// FailForRider fails the rider's open request, if any.
func (m *RequestManager) FailForRider(rider model.RiderID, reason string) (*model.Driver, error) {
	id, ok := m.active[rider]
	if !ok {
		return nil, nil
	}
	return m.Fail(m.requests[id], reason)
}

// FailForDriver fails the request the driver is serving, if any.
func (m *RequestManager) FailForDriver(drv *model.Driver, reason string) error {
	if drv.AssignedRequest == nil {
		return nil
	}
	req, ok := m.requests[*drv.AssignedRequest]
	if !ok {
		return nil
	}
	_, err := m.Fail(req, reason)
	return err
}

// Active returns the open request of a rider.
func (m *RequestManager) Active(rider model.RiderID) (*model.RideRequest, bool) {
	id, ok := m.active[rider]
	if !ok {
		return nil, false
	}
	return m.requests[id], true
}

// Get returns the request with the given id.
func (m *RequestManager) Get(id model.RequestID) (*model.RideRequest, bool) {
	r, ok := m.requests[id]
	return r, ok
}

// List returns all retained requests ordered by id.
func (m *RequestManager) List() []*model.RideRequest {
	out := make([]*model.RideRequest, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Prune drops the oldest terminal requests so that at most limit remain.
// A limit of zero or less keeps everything.
func (m *RequestManager) Prune(limit int) int {
	if limit <= 0 {
		return 0
	}
	var terminal []model.RequestID
	for id, r := range m.requests {
		if r.Status.Terminal() {
			terminal = append(terminal, id)
		}
	}
	excess := len(terminal) - limit
	if excess <= 0 {
		return 0
	}
	sort.Slice(terminal, func(i, j int) bool { return terminal[i] < terminal[j] })
	for _, id := range terminal[:excess] {
		delete(m.requests, id)
	}
	return excess
}

// Reset drops every request, empties the queue and zeroes the counters.
func (m *RequestManager) Reset() {
	m.requests = make(map[model.RequestID]*model.RideRequest)
	m.active = make(map[model.RiderID]model.RequestID)
	m.nextID = 1
	m.tally = Tally{}
	m.queue.Reset()
	queueLength.Set(0)
}
