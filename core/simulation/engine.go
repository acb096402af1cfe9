// Package simulation runs the grid dispatch simulation. The Engine owns every
// driver, rider and request and serializes all operations behind one lock.
package simulation

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/ridesim/core/dispatch"
	"github.com/kilianp07/ridesim/core/events"
	"github.com/kilianp07/ridesim/core/logger"
	"github.com/kilianp07/ridesim/core/model"
	"github.com/kilianp07/ridesim/core/registry"
	infralogger "github.com/kilianp07/ridesim/infra/logger"
	"github.com/kilianp07/ridesim/internal/eventbus"
)

// Options configures a new Engine.
type Options struct {
	Config  model.SimulationConfig
	Scoring dispatch.Config
	// HistoryLimit caps retained terminal requests. Zero keeps all.
	HistoryLimit int
	Bus          eventbus.Publisher[events.Event]
	Logger       logger.Logger
	Now          func() time.Time
}

// Engine is the simulation aggregate.
type Engine struct {
	mu       sync.Mutex
	cfg      model.SimulationConfig
	initial  model.SimulationConfig
	drivers  *registry.Drivers
	riders   *registry.Riders
	requests *dispatch.RequestManager
	stats    model.SimulationStats
	tick     uint64
	history  int
	bus      eventbus.Publisher[events.Event]
	log      logger.Logger
	now      func() time.Time
}

// New validates opts and returns an empty engine.
func New(opts Options) (*Engine, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}
	e := &Engine{
		cfg:     opts.Config,
		initial: opts.Config,
		drivers: registry.NewDrivers(),
		riders:  registry.NewRiders(),
		history: opts.HistoryLimit,
		bus:     opts.Bus,
		log:     opts.Logger,
		now:     opts.Now,
	}
	if e.log == nil {
		e.log = infralogger.NopLogger{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.requests = dispatch.NewRequestManager(e.drivers, dispatch.NewScorer(opts.Scoring), e.cfg.DriverSpeed,
		observer{e}, e.clock, e.log)
	e.refresh()
	return e, nil
}

func (e *Engine) clock() (uint64, time.Time) { return e.tick, e.now() }

func (e *Engine) meta() events.Meta { return events.Meta{Tick: e.tick, Time: e.now()} }

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) checkPosition(p model.Position) error {
	if !e.cfg.Contains(p) {
		return fmt.Errorf("%w: (%d,%d) outside %dx%d grid", model.ErrInvalidPosition, p.X, p.Y, e.cfg.GridWidth, e.cfg.GridHeight)
	}
	return nil
}

// AddDriver places an available driver at (x,y) and drains the queue.
func (e *Engine) AddDriver(x, y int) (model.Driver, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := model.Position{X: x, Y: y}
	if err := e.checkPosition(p); err != nil {
		e.log.Warnf("add driver: %v", err)
		return model.Driver{}, err
	}
	d := e.drivers.Add(p)
	e.log.Infof("%s added at (%d,%d)", d.ID, x, y)
	e.publish(events.DriverAdded{Meta: e.meta(), Driver: d.Clone()})
	e.requests.DrainQueue()
	e.refresh()
	return d.Clone(), nil
}

// RemoveDriver deletes a driver. A driver on a trip fails its request; the
// rider stays on the grid.
func (e *Engine) RemoveDriver(id model.DriverID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.drivers.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	if err := e.requests.FailForDriver(d, "driver removed"); err != nil {
		return err
	}
	e.drivers.Remove(id)
	e.log.Infof("%s removed", id)
	e.publish(events.DriverRemoved{Meta: e.meta(), Driver: d.Clone()})
	e.refresh()
	return nil
}

// SetDriverOnline toggles a driver between available and offline. A driver
// on a trip cannot go offline.
func (e *Engine) SetDriverOnline(id model.DriverID, online bool) (model.Driver, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.drivers.Get(id)
	if !ok {
		return model.Driver{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	switch {
	case online && d.Status == model.DriverOffline:
		d.Status = model.DriverAvailable
		d.IdleTicks = 0
	case !online && d.Status == model.DriverAvailable:
		d.Status = model.DriverOffline
		d.IdleTicks = 0
	case !online && d.Status == model.DriverOnTrip:
		return d.Clone(), fmt.Errorf("%w: %s is on a trip", model.ErrInvalidTransition, id)
	default:
		return d.Clone(), nil
	}
	e.publish(events.DriverStatusChanged{Meta: e.meta(), Driver: d.Clone()})
	if online {
		e.requests.DrainQueue()
	}
	e.refresh()
	return d.Clone(), nil
}

// AddRider creates a rider and immediately opens a request for it.
func (e *Engine) AddRider(pickup, dropoff model.Position) (model.Rider, model.RideRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range []model.Position{pickup, dropoff} {
		if err := e.checkPosition(p); err != nil {
			e.log.Warnf("add rider: %v", err)
			return model.Rider{}, model.RideRequest{}, err
		}
	}
	r := e.riders.Add(pickup, dropoff)
	req, err := e.requests.Create(r)
	if err != nil {
		e.riders.Remove(r.ID)
		return model.Rider{}, model.RideRequest{}, err
	}
	e.refresh()
	return *r, req.Clone(), nil
}

// RemoveRider deletes a rider and fails its open request. A driver serving
// that request becomes available and the queue is drained.
func (e *Engine) RemoveRider(id model.RiderID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.riders.Get(id); !ok {
		return fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	released, err := e.requests.FailForRider(id, "rider removed")
	if err != nil {
		return err
	}
	e.riders.Remove(id)
	e.log.Infof("%s removed", id)
	if released != nil {
		e.requests.DrainQueue()
	}
	e.refresh()
	return nil
}

// CreateRequest opens a new request for an existing rider.
func (e *Engine) CreateRequest(id model.RiderID) (model.RideRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.riders.Get(id)
	if !ok {
		return model.RideRequest{}, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	req, err := e.requests.Create(r)
	if err != nil {
		e.log.Warnf("create request: %v", err)
		return model.RideRequest{}, err
	}
	e.refresh()
	return req.Clone(), nil
}

// TickResult summarizes one tick.
type TickResult struct {
	Tick      uint64 `json:"tick"`
	Arrivals  int    `json:"arrivals"`
	Completed int    `json:"completed"`
	Assigned  int    `json:"assigned"`
}

// Tick advances the simulation one step: move drivers on a trip, age idle
// drivers, drain the queue, then refresh statistics.
func (e *Engine) Tick() TickResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tick++
	res := TickResult{Tick: e.tick}

	for _, d := range e.drivers.List() {
		if d.Status != model.DriverOnTrip || d.Target == nil {
			continue
		}
		d.Position = step(d.Position, *d.Target, e.cfg.DriverSpeed)
		if d.Position != *d.Target {
			continue
		}
		res.Arrivals++
		done, err := e.requests.Arrive(d)
		if err != nil {
			e.log.Errorf("tick %d: %v", e.tick, err)
			continue
		}
		if done != nil {
			res.Completed++
			e.riders.Remove(done.RiderID)
		}
	}

	for _, d := range e.drivers.Available() {
		d.IdleTicks++
	}

	res.Assigned = e.requests.DrainQueue()

	e.requests.Prune(e.history)
	e.refresh()
	ticksTotal.Inc()
	e.publish(events.TickCompleted{
		Meta:        e.meta(),
		Stats:       e.stats,
		QueueLength: e.requests.Queue().Len(),
		Available:   len(e.drivers.Available()),
		Arrivals:    res.Arrivals,
		Assigned:    res.Assigned,
	})
	return res
}

// Reset clears every entity, the queue and the statistics and restores the
// configuration the engine was created with.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Engine) reset() {
	e.drivers.Reset()
	e.riders.Reset()
	e.requests.Reset()
	e.cfg = e.initial
	e.requests.SetSpeed(e.cfg.DriverSpeed)
	e.tick = 0
	e.refresh()
	e.log.Infof("simulation reset")
	e.publish(events.SimulationReset{Meta: e.meta()})
}

// Initialize resets the engine and places drivers at seeds. Seeds are
// checked against the initial configuration before anything changes.
func (e *Engine) Initialize(seeds []model.Position) ([]model.Driver, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range seeds {
		if !e.initial.Contains(p) {
			return nil, fmt.Errorf("%w: seed (%d,%d) outside %dx%d grid", model.ErrInvalidPosition, p.X, p.Y, e.initial.GridWidth, e.initial.GridHeight)
		}
	}
	e.reset()
	out := make([]model.Driver, 0, len(seeds))
	for _, p := range seeds {
		d := e.drivers.Add(p)
		e.publish(events.DriverAdded{Meta: e.meta(), Driver: d.Clone()})
		out = append(out, d.Clone())
	}
	e.refresh()
	return out, nil
}

// UpdateConfig applies a partial configuration. Shrinking the grid is
// rejected when any driver, target, rider or open request would fall outside.
func (e *Engine) UpdateConfig(patch model.ConfigPatch) (model.SimulationConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := patch.Apply(e.cfg)
	if err := next.Validate(); err != nil {
		return e.cfg, err
	}
	if err := e.checkOrphans(next); err != nil {
		e.log.Warnf("update config: %v", err)
		return e.cfg, err
	}
	e.cfg = next
	e.requests.SetSpeed(next.DriverSpeed)
	e.publish(events.ConfigUpdated{Meta: e.meta(), Config: next})
	return next, nil
}

func (e *Engine) checkOrphans(cfg model.SimulationConfig) error {
	orphan := func(what string, p model.Position) error {
		if cfg.Contains(p) {
			return nil
		}
		return fmt.Errorf("%w: %s at (%d,%d) outside %dx%d grid", model.ErrInvalidConfig, what, p.X, p.Y, cfg.GridWidth, cfg.GridHeight)
	}
	for _, d := range e.drivers.List() {
		if err := orphan(d.ID.String(), d.Position); err != nil {
			return err
		}
		if d.Target != nil {
			if err := orphan(d.ID.String()+" target", *d.Target); err != nil {
				return err
			}
		}
	}
	for _, r := range e.riders.List() {
		if err := orphan(r.ID.String()+" pickup", r.Pickup); err != nil {
			return err
		}
		if err := orphan(r.ID.String()+" dropoff", r.Dropoff); err != nil {
			return err
		}
	}
	for _, req := range e.requests.List() {
		if req.Status.Terminal() {
			continue
		}
		if err := orphan(req.ID.String()+" pickup", req.Pickup); err != nil {
			return err
		}
		if err := orphan(req.ID.String()+" dropoff", req.Dropoff); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) refresh() {
	t := e.requests.Tally()
	e.stats = model.SimulationStats{
		TotalRequests:  t.Total,
		CompletedRides: t.Completed,
		FailedRides:    t.Failed,
		AverageETA:     t.AverageETA(),
		ActiveDrivers:  e.drivers.CountStatus(model.DriverOnTrip),
		TotalDrivers:   e.drivers.Len(),
	}
	for _, s := range []model.DriverStatus{model.DriverAvailable, model.DriverOnTrip, model.DriverOffline} {
		driversByState.WithLabelValues(string(s)).Set(float64(e.drivers.CountStatus(s)))
	}
	ridersGauge.Set(float64(e.riders.Len()))
}
