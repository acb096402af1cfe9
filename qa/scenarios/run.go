package scenarios

import (
	"errors"
	"fmt"

	"github.com/kilianp07/ridesim/core/analysis"
	"github.com/kilianp07/ridesim/core/logger"
	"github.com/kilianp07/ridesim/core/model"
	"github.com/kilianp07/ridesim/core/simulation"
	infralogger "github.com/kilianp07/ridesim/infra/logger"
)

// Counts tallies retained requests by status.
type Counts struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Waiting   int `json:"waiting"`
	Assigned  int `json:"assigned"`
}

// Result is the final state of a scenario run.
type Result struct {
	Name     string                  `json:"name"`
	Tick     uint64                  `json:"tick"`
	Stats    model.SimulationStats   `json:"stats"`
	Counts   Counts                  `json:"counts"`
	Fairness analysis.FairnessReport `json:"fairness"`
	Requests []model.RideRequest     `json:"requests"`
	Drivers  []model.Driver          `json:"drivers"`
}

// Run executes sc on a new engine. A step that fails without ExpectError, or
// succeeds with it, aborts the run.
func Run(sc *Scenario, log logger.Logger) (*Result, error) {
	if log == nil {
		log = infralogger.NopLogger{}
	}
	eng, err := simulation.New(simulation.Options{
		Config:       sc.Config.ToModel(),
		Scoring:      sc.Scoring.ToModel(),
		HistoryLimit: sc.Config.HistoryLimit,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	if _, err := eng.Initialize(sc.Drivers); err != nil {
		return nil, fmt.Errorf("scenario %s: drivers: %w", sc.Name, err)
	}
	for i, st := range sc.Steps {
		err := apply(eng, st)
		switch {
		case st.ExpectError && err == nil:
			return nil, fmt.Errorf("scenario %s: step %d: expected an error", sc.Name, i+1)
		case !st.ExpectError && err != nil:
			return nil, fmt.Errorf("scenario %s: step %d: %w", sc.Name, i+1, err)
		}
	}

	state := eng.State()
	res := &Result{
		Name:     sc.Name,
		Tick:     state.Tick,
		Stats:    state.Stats,
		Fairness: analysis.Summarize(state.Drivers),
		Requests: state.Requests,
		Drivers:  state.Drivers,
	}
	for _, r := range state.Requests {
		switch r.Status {
		case model.RequestCompleted:
			res.Counts.Completed++
		case model.RequestFailed:
			res.Counts.Failed++
		case model.RequestWaiting:
			res.Counts.Waiting++
		case model.RequestAssigned:
			res.Counts.Assigned++
		}
	}
	return res, nil
}

var errEmptyStep = errors.New("step has no action")

func apply(eng *simulation.Engine, st Step) error {
	switch {
	case st.Tick:
		eng.Tick()
	case st.Ticks > 0:
		for i := 0; i < st.Ticks; i++ {
			eng.Tick()
		}
	case st.AddDriver != nil:
		_, err := eng.AddDriver(st.AddDriver.X, st.AddDriver.Y)
		return err
	case st.AddRider != nil:
		_, _, err := eng.AddRider(st.AddRider.Pickup, st.AddRider.Dropoff)
		return err
	case st.RemoveDriver > 0:
		return eng.RemoveDriver(model.DriverID(st.RemoveDriver))
	case st.RemoveRider > 0:
		return eng.RemoveRider(model.RiderID(st.RemoveRider))
	case st.Request > 0:
		_, err := eng.CreateRequest(model.RiderID(st.Request))
		return err
	case st.SetOnline != nil:
		_, err := eng.SetDriverOnline(model.DriverID(st.SetOnline.Driver), st.SetOnline.Online)
		return err
	default:
		return errEmptyStep
	}
	return nil
}

// Check compares the run against want and lists every mismatch.
func (r *Result) Check(want Expected) error {
	var errs []error
	check := func(name string, exp *int, got int) {
		if exp != nil && *exp != got {
			errs = append(errs, fmt.Errorf("%s: want %d, got %d", name, *exp, got))
		}
	}
	check("completed", want.Completed, r.Counts.Completed)
	check("failed", want.Failed, r.Counts.Failed)
	check("waiting", want.Waiting, r.Counts.Waiting)
	check("assigned", want.Assigned, r.Counts.Assigned)
	return errors.Join(errs...)
}
