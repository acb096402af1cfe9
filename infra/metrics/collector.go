package metrics

import (
	"context"

	"github.com/kilianp07/ridesim/core/events"
	coremetrics "github.com/kilianp07/ridesim/core/metrics"
	"github.com/kilianp07/ridesim/core/model"
	"github.com/kilianp07/ridesim/core/monitoring"
	"github.com/kilianp07/ridesim/infra/logger"
	"github.com/kilianp07/ridesim/internal/eventbus"
)

// StartEventCollector subscribes to bus and feeds sink from the engine
// events. It stops when ctx is canceled or the bus closes. The returned
// channel is closed once the collector has stopped.
func StartEventCollector(ctx context.Context, bus eventbus.Subscriber[events.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
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
				if err := record(sink, ev); err != nil {
					log.Errorf("record %s: %v", ev.Kind(), err)
					monitoring.CaptureException(err, map[string]string{"module": "metrics", "event": ev.Kind()})
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.TickCompleted:
		return sink.RecordTick(coremetrics.TickSnapshot{
			Tick:             e.Tick,
			Time:             e.Time,
			Stats:            e.Stats,
			QueueLength:      e.QueueLength,
			AvailableDrivers: e.Available,
			Arrivals:         e.Arrivals,
			Assigned:         e.Assigned,
		})
	case events.RequestAssigned:
		if r, ok := sink.(coremetrics.AssignmentRecorder); ok {
			return r.RecordAssignment(coremetrics.AssignmentEvent{
				RequestID:  e.Request.ID,
				DriverID:   e.Driver.ID,
				ETA:        e.ETA,
				Score:      e.Score,
				Candidates: e.Candidates,
				Tick:       e.Tick,
				Time:       e.Time,
			})
		}
	case events.RequestCompleted:
		if r, ok := sink.(coremetrics.OutcomeRecorder); ok {
			return r.RecordOutcome(outcome(e.Meta, e.Request, ""))
		}
	case events.RequestFailed:
		if r, ok := sink.(coremetrics.OutcomeRecorder); ok {
			return r.RecordOutcome(outcome(e.Meta, e.Request, e.Reason))
		}
	}
	return nil
}

func outcome(meta events.Meta, req model.RideRequest, reason string) coremetrics.OutcomeEvent {
	var dur uint64
	if meta.Tick > req.CreatedTick {
		dur = meta.Tick - req.CreatedTick
	}
	return coremetrics.OutcomeEvent{
		RequestID: req.ID,
		RiderID:   req.RiderID,
		DriverID:  req.DriverID,
		Status:    req.Status,
		Reason:    reason,
		Duration:  dur,
		Tick:      meta.Tick,
		Time:      meta.Time,
	}
}
