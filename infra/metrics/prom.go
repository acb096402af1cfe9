package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/ridesim/core/metrics"
)

// PromSink exposes tick snapshots, assignments and outcomes as Prometheus
// metrics.
type PromSink struct {
	tick      prometheus.Gauge
	stats     *prometheus.GaugeVec
	avgETA    prometheus.Gauge
	available prometheus.Gauge
	score     prometheus.Histogram
	outcomes  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewPromSink registers the sink metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. Metrics already present
// on reg are reused. A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.tick, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ridesim_tick",
		Help: "Last completed simulation tick",
	})); err != nil {
		return nil, err
	}
	if s.stats, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ridesim_stats",
		Help: "Aggregate simulation statistics at the last tick",
	}, []string{"stat"})); err != nil {
		return nil, err
	}
	if s.avgETA, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ridesim_average_eta_ticks",
		Help: "Running average ETA over all assignments",
	})); err != nil {
		return nil, err
	}
	if s.available, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ridesim_available_drivers",
		Help: "Drivers available for dispatch at the last tick",
	})); err != nil {
		return nil, err
	}
	if s.score, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ridesim_assignment_score",
		Help:    "Score of the selected driver, lower is better",
		Buckets: prometheus.LinearBuckets(-50, 10, 12),
	})); err != nil {
		return nil, err
	}
	if s.outcomes, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ridesim_request_outcomes_total",
		Help: "Requests that reached a terminal status",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ridesim_request_duration_ticks",
		Help:    "Ticks between request creation and its outcome",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	}, []string{"status"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTick updates the gauges from the snapshot.
func (s *PromSink) RecordTick(snap coremetrics.TickSnapshot) error {
	s.tick.Set(float64(snap.Tick))
	st := snap.Stats
	s.stats.WithLabelValues("total_requests").Set(float64(st.TotalRequests))
	s.stats.WithLabelValues("completed_rides").Set(float64(st.CompletedRides))
	s.stats.WithLabelValues("failed_rides").Set(float64(st.FailedRides))
	s.stats.WithLabelValues("active_drivers").Set(float64(st.ActiveDrivers))
	s.stats.WithLabelValues("total_drivers").Set(float64(st.TotalDrivers))
	s.avgETA.Set(st.AverageETA)
	s.available.Set(float64(snap.AvailableDrivers))
	return nil
}

// RecordAssignment observes the winning score.
func (s *PromSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	s.score.Observe(ev.Score)
	return nil
}

// RecordOutcome counts the outcome and observes its duration.
func (s *PromSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	status := string(ev.Status)
	s.outcomes.WithLabelValues(status).Inc()
	s.duration.WithLabelValues(status).Observe(float64(ev.Duration))
	return nil
}
