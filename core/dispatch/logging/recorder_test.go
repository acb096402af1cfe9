package logging

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridesim/core/events"
	"github.com/kilianp07/ridesim/core/model"
	infralogger "github.com/kilianp07/ridesim/infra/logger"
	"github.com/kilianp07/ridesim/internal/eventbus"
)

func TestFromEvent(t *testing.T) {
	now := time.Now()
	req := model.RideRequest{ID: 4, RiderID: 2, ETA: 3}
	rec, ok := FromEvent(events.RequestAssigned{
		Meta: events.Meta{Tick: 2, Time: now}, Request: req, Driver: model.Driver{ID: 5}, ETA: 3, Score: -7, Candidates: 3,
	})
	require.True(t, ok)
	_, err := uuid.Parse(rec.ID)
	assert.NoError(t, err)
	assert.Equal(t, KindAssigned, rec.Kind)
	assert.Equal(t, model.RequestID(4), rec.RequestID)
	require.NotNil(t, rec.DriverID)
	assert.Equal(t, model.DriverID(5), *rec.DriverID)
	assert.Equal(t, -7.0, rec.Score)
	assert.Equal(t, 3, rec.Candidates)
	assert.Equal(t, uint64(2), rec.Tick)

	rec, ok = FromEvent(events.RequestFailed{Meta: events.Meta{Time: now}, Request: req, Reason: "driver removed"})
	require.True(t, ok)
	assert.Equal(t, KindFailed, rec.Kind)
	assert.Nil(t, rec.DriverID)
	assert.Equal(t, "driver removed", rec.Reason)

	_, ok = FromEvent(events.TickCompleted{})
	assert.False(t, ok)
}

func TestStartRecorder(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "dispatch.jsonl"))
	require.NoError(t, err)
	bus := eventbus.NewTyped[events.Event]()
	done := StartRecorder(context.Background(), bus, store, infralogger.NopLogger{})

	now := time.Now()
	drv := model.DriverID(1)
	bus.Publish(events.RequestCreated{Meta: events.Meta{Time: now}})
	bus.Publish(events.RequestAssigned{Meta: events.Meta{Tick: 1, Time: now}, Request: model.RideRequest{ID: 1, RiderID: 1}, Driver: model.Driver{ID: drv}, ETA: 2})
	bus.Publish(events.RequestCompleted{Meta: events.Meta{Tick: 4, Time: now}, Request: model.RideRequest{ID: 1, RiderID: 1, DriverID: &drv}, Driver: model.Driver{ID: drv}})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop")
	}
	out, err := store.Query(context.Background(), LogQuery{DriverID: &drv})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, KindAssigned, out[0].Kind)
	assert.Equal(t, KindCompleted, out[1].Kind)
}

// slowStore appends with a delay so the engine outpaces the recorder.
type slowStore struct {
	mu   sync.Mutex
	recs []LogRecord
}

func (s *slowStore) Append(_ context.Context, rec LogRecord) error {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *slowStore) Query(_ context.Context, q LogQuery) ([]LogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LogRecord
	for _, r := range s.recs {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return q.limit(out), nil
}

func (s *slowStore) Close() error { return nil }

func TestStartRecorderKeepsBurst(t *testing.T) {
	const n = 4 * eventbus.DefaultBuffer
	store := &slowStore{}
	bus := eventbus.NewTyped[events.Event]()
	done := StartRecorder(context.Background(), bus, store, infralogger.NopLogger{})

	now := time.Now()
	for i := 1; i <= n; i++ {
		req := model.RideRequest{ID: model.RequestID(i), RiderID: model.RiderID(i)}
		bus.Publish(events.RequestCreated{Meta: events.Meta{Time: now}, Request: req})
		bus.Publish(events.RequestAssigned{Meta: events.Meta{Tick: 1, Time: now}, Request: req, Driver: model.Driver{ID: model.DriverID(i)}, ETA: 1})
	}
	bus.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("recorder did not drain")
	}
	out, err := store.Query(context.Background(), LogQuery{Kind: KindAssigned})
	require.NoError(t, err)
	require.Len(t, out, n)
	for i, rec := range out {
		assert.Equal(t, model.RequestID(i+1), rec.RequestID)
	}
}
