package logging

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ridesim/core/events"
	"github.com/kilianp07/ridesim/core/logger"
	"github.com/kilianp07/ridesim/core/monitoring"
	"github.com/kilianp07/ridesim/internal/eventbus"
)

// FromEvent converts an assignment or outcome event into a record. ok is
// false for every other event.
func FromEvent(ev events.Event) (rec LogRecord, ok bool) {
	meta := ev.Stamp()
	rec = LogRecord{ID: uuid.NewString(), Timestamp: meta.Time, Tick: meta.Tick}
	switch e := ev.(type) {
	case events.RequestAssigned:
		id := e.Driver.ID
		rec.Kind = KindAssigned
		rec.RequestID, rec.RiderID, rec.DriverID = e.Request.ID, e.Request.RiderID, &id
		rec.ETA, rec.Score, rec.Candidates = e.ETA, e.Score, e.Candidates
	case events.RequestCompleted:
		id := e.Driver.ID
		rec.Kind = KindCompleted
		rec.RequestID, rec.RiderID, rec.DriverID = e.Request.ID, e.Request.RiderID, &id
		rec.ETA = e.Request.ETA
	case events.RequestFailed:
		rec.Kind = KindFailed
		rec.RequestID, rec.RiderID, rec.DriverID = e.Request.ID, e.Request.RiderID, e.Request.DriverID
		rec.ETA = e.Request.ETA
		rec.Reason = e.Reason
	default:
		return LogRecord{}, false
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	return rec, true
}

// StartRecorder appends a record to store for every assignment and outcome
// published on bus. It stops when ctx is canceled or the bus closes; the
// returned channel is closed afterwards.
func StartRecorder(ctx context.Context, bus eventbus.Subscriber[events.Event], store LogStore, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.SubscribeQueued()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				rec, ok := FromEvent(ev)
				if !ok {
					continue
				}
				if err := store.Append(ctx, rec); err != nil {
					log.Errorf("append %s record for %s: %v", rec.Kind, rec.RequestID, err)
					monitoring.CaptureException(err, map[string]string{"module": "dispatch_log"})
				}
			}
		}
	}()
	return done
}
