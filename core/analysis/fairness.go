// Package analysis computes workload statistics over the driver fleet.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/ridesim/core/model"
)

// FairnessReport summarizes how evenly trips and idle time are spread.
type FairnessReport struct {
	Drivers     int     `json:"drivers"`
	MeanTrips   float64 `json:"mean_trips"`
	StdDevTrips float64 `json:"stddev_trips"`
	MeanIdle    float64 `json:"mean_idle"`
	StdDevIdle  float64 `json:"stddev_idle"`
	MaxTrips    int     `json:"max_trips"`
	MinTrips    int     `json:"min_trips"`
	// GiniTrips is 0 when every driver has the same number of trips and
	// approaches 1 when one driver takes them all.
	GiniTrips float64 `json:"gini_trips"`
}

// Summarize builds a report over drivers. Offline drivers are included.
func Summarize(drivers []model.Driver) FairnessReport {
	r := FairnessReport{Drivers: len(drivers)}
	if len(drivers) == 0 {
		return r
	}
	trips := make([]float64, len(drivers))
	idle := make([]float64, len(drivers))
	for i, d := range drivers {
		trips[i] = float64(d.TotalTrips)
		idle[i] = float64(d.IdleTicks)
	}
	r.MeanTrips, r.StdDevTrips = stat.PopMeanStdDev(trips, nil)
	r.MeanIdle, r.StdDevIdle = stat.PopMeanStdDev(idle, nil)
	r.MaxTrips = int(floats.Max(trips))
	r.MinTrips = int(floats.Min(trips))
	r.GiniTrips = Gini(trips)
	return r
}

// Gini returns the Gini coefficient of x. Empty or all-zero input yields 0.
func Gini(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	total := floats.Sum(x)
	if total == 0 {
		return 0
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	var weighted float64
	for i, v := range sorted {
		weighted += float64(i+1) * v
	}
	fn := float64(n)
	return 2*weighted/(fn*total) - (fn+1)/fn
}
