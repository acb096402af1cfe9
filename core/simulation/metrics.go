package simulation

import "github.com/prometheus/client_golang/prometheus"

var (
	ticksTotal     prometheus.Counter
	driversByState *prometheus.GaugeVec
	ridersGauge    prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, *prometheus.GaugeVec, prometheus.Gauge) {
	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ridesim_ticks_total",
		Help: "Number of simulation ticks executed",
	})
	drivers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ridesim_drivers",
		Help: "Drivers by status",
	}, []string{"status"})
	riders := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ridesim_riders",
		Help: "Riders currently on the grid",
	})
	return ticks, drivers, riders
}

func init() {
	ticksTotal, driversByState, ridersGauge = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers engine metrics on reg, or on the default
// registerer when reg is nil.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(ticksTotal, driversByState, ridersGauge)
}

// ResetMetrics reinitializes the collectors and registers them on reg if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	ticksTotal, driversByState, ridersGauge = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
