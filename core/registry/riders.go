package registry

import "github.com/kilianp07/ridesim/core/model"

// Riders stores riders keyed by id.
type Riders struct {
	t table[model.RiderID, *model.Rider]
}

// NewRiders returns an empty rider registry.
func NewRiders() *Riders {
	return &Riders{t: newTable[model.RiderID, *model.Rider]()}
}

// Add creates a rider with the next id.
func (r *Riders) Add(pickup, dropoff model.Position) *model.Rider {
	rd := &model.Rider{ID: r.t.allocate(), Pickup: pickup, Dropoff: dropoff}
	r.t.data[rd.ID] = rd
	return rd
}

// Get returns the rider with the given id.
func (r *Riders) Get(id model.RiderID) (*model.Rider, bool) { return r.t.get(id) }

// Remove deletes the rider and returns it.
func (r *Riders) Remove(id model.RiderID) (*model.Rider, bool) { return r.t.remove(id) }

// List returns all riders ordered by id.
func (r *Riders) List() []*model.Rider {
	ids := r.t.ids()
	out := make([]*model.Rider, len(ids))
	for i, id := range ids {
		out[i] = r.t.data[id]
	}
	return out
}

// Len returns the number of riders.
func (r *Riders) Len() int { return len(r.t.data) }

// Reset removes every rider and restarts ids at 1.
func (r *Riders) Reset() { r.t.reset() }
