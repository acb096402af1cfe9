package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridesim/core/events"
	coremetrics "github.com/kilianp07/ridesim/core/metrics"
	"github.com/kilianp07/ridesim/core/model"
	"github.com/kilianp07/ridesim/internal/eventbus"
)

type recordingSink struct {
	mu          sync.Mutex
	ticks       []coremetrics.TickSnapshot
	assignments []coremetrics.AssignmentEvent
	outcomes    []coremetrics.OutcomeEvent
}

func (r *recordingSink) RecordTick(s coremetrics.TickSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, s)
	return nil
}

func (r *recordingSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments = append(r.assignments, ev)
	return nil
}

func (r *recordingSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, ev)
	return nil
}

func TestEventCollectorRoutesEvents(t *testing.T) {
	bus := eventbus.NewTyped[events.Event]()
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartEventCollector(ctx, bus, sink)

	drv := model.DriverID(1)
	req := model.RideRequest{ID: 4, RiderID: 2, Status: model.RequestCompleted, DriverID: &drv, CreatedTick: 3}
	bus.Publish(events.RequestAssigned{Meta: events.Meta{Tick: 3}, Request: req, Driver: model.Driver{ID: 1}, ETA: 2, Score: 2, Candidates: 1})
	bus.Publish(events.RequestCompleted{Meta: events.Meta{Tick: 8}, Request: req})
	bus.Publish(events.DriverAdded{})
	bus.Publish(events.TickCompleted{Meta: events.Meta{Tick: 8}, QueueLength: 1, Available: 2, Stats: model.SimulationStats{CompletedRides: 1}})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
	require.Len(t, sink.assignments, 1)
	assert.Equal(t, model.DriverID(1), sink.assignments[0].DriverID)
	assert.Equal(t, 2, sink.assignments[0].ETA)
	require.Len(t, sink.outcomes, 1)
	assert.Equal(t, uint64(5), sink.outcomes[0].Duration)
	assert.Equal(t, model.RequestCompleted, sink.outcomes[0].Status)
	require.Len(t, sink.ticks, 1)
	assert.Equal(t, 2, sink.ticks[0].AvailableDrivers)
	assert.Equal(t, 1, sink.ticks[0].Stats.CompletedRides)
}

func TestEventCollectorStopsOnCancel(t *testing.T) {
	bus := eventbus.NewTyped[events.Event]()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, coremetrics.NopSink{})
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestEventCollectorNilInputs(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, coremetrics.NopSink{})
	_, open := <-done
	assert.False(t, open)
}
