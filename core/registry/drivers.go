package registry

import "github.com/kilianp07/ridesim/core/model"

// Drivers stores drivers keyed by id.
type Drivers struct {
	t table[model.DriverID, *model.Driver]
}

// NewDrivers returns an empty driver registry.
func NewDrivers() *Drivers {
	return &Drivers{t: newTable[model.DriverID, *model.Driver]()}
}

// Add creates an available driver at p with the next id.
func (r *Drivers) Add(p model.Position) *model.Driver {
	d := model.NewDriver(r.t.allocate(), p)
	r.t.data[d.ID] = d
	return d
}

// Get returns the driver with the given id.
func (r *Drivers) Get(id model.DriverID) (*model.Driver, bool) { return r.t.get(id) }

// Remove deletes the driver and returns it.
func (r *Drivers) Remove(id model.DriverID) (*model.Driver, bool) { return r.t.remove(id) }

// List returns all drivers ordered by id.
func (r *Drivers) List() []*model.Driver {
	ids := r.t.ids()
	out := make([]*model.Driver, len(ids))
	for i, id := range ids {
		out[i] = r.t.data[id]
	}
	return out
}

// Available returns the available drivers ordered by id.
func (r *Drivers) Available() []*model.Driver {
	var out []*model.Driver
	for _, d := range r.List() {
		if d.Available() {
			out = append(out, d)
		}
	}
	return out
}

// CountStatus returns the number of drivers in status s.
func (r *Drivers) CountStatus(s model.DriverStatus) int {
	n := 0
	for _, d := range r.t.data {
		if d.Status == s {
			n++
		}
	}
	return n
}

// Len returns the number of drivers.
func (r *Drivers) Len() int { return len(r.t.data) }

// Reset removes every driver and restarts ids at 1.
func (r *Drivers) Reset() { r.t.reset() }
