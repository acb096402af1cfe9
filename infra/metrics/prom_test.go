package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/ridesim/core/metrics"
	"github.com/kilianp07/ridesim/core/model"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, s.RecordTick(coremetrics.TickSnapshot{
		Tick:             12,
		Stats:            model.SimulationStats{TotalRequests: 5, CompletedRides: 3, AverageETA: 2.5, TotalDrivers: 4},
		AvailableDrivers: 3,
	}))
	require.NoError(t, s.RecordAssignment(coremetrics.AssignmentEvent{Score: -4}))
	require.NoError(t, s.RecordOutcome(coremetrics.OutcomeEvent{Status: model.RequestCompleted, Duration: 6}))
	require.NoError(t, s.RecordOutcome(coremetrics.OutcomeEvent{Status: model.RequestCompleted, Duration: 2}))

	assert.Equal(t, 12.0, testutil.ToFloat64(s.tick))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.stats.WithLabelValues("completed_rides")))
	assert.Equal(t, 4.0, testutil.ToFloat64(s.stats.WithLabelValues("total_drivers")))
	assert.Equal(t, 2.5, testutil.ToFloat64(s.avgETA))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.available))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.outcomes.WithLabelValues("completed")))
	assert.Equal(t, 1, testutil.CollectAndCount(s.score))
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, a.RecordOutcome(coremetrics.OutcomeEvent{Status: model.RequestFailed}))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.outcomes.WithLabelValues("failed")))
}
