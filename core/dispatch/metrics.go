package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal    *prometheus.CounterVec
	assignmentsTotal prometheus.Counter
	assignmentETA    prometheus.Histogram
	queueLength      prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Counter, prometheus.Histogram, prometheus.Gauge) {
	req := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridesim_requests_total",
			Help: "Ride request transitions by resulting status",
		},
		[]string{"status"},
	)
	asn := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ridesim_assignments_total",
			Help: "Number of driver assignments",
		},
	)
	eta := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ridesim_assignment_eta_ticks",
			Help:    "ETA to pickup in ticks at assignment time",
			Buckets: prometheus.LinearBuckets(0, 2, 15),
		},
	)
	q := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ridesim_queue_length",
			Help: "Requests waiting in the dispatch queue",
		},
	)
	return req, asn, eta, q
}

func init() {
	requestsTotal, assignmentsTotal, assignmentETA, queueLength = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(requestsTotal, assignmentsTotal, assignmentETA, queueLength)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	requestsTotal, assignmentsTotal, assignmentETA, queueLength = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
