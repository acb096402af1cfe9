package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManhattanAndETA(t *testing.T) {
	a := Position{X: 0, Y: 0}
	b := Position{X: 3, Y: 4}
	assert.Equal(t, 7, Manhattan(a, b))
	assert.Equal(t, 7, ETA(a, b, 1))
	assert.Equal(t, 4, ETA(a, b, 2))
	assert.Equal(t, 3, ETA(a, b, 3))
	assert.Equal(t, 0, ETA(b, b, 2))
	assert.Equal(t, 7, ETA(a, b, 0), "speed below 1 behaves like 1")
}

func TestInGrid(t *testing.T) {
	cfg := SimulationConfig{GridWidth: 5, GridHeight: 3}
	assert.True(t, cfg.Contains(Position{X: 4, Y: 2}))
	assert.False(t, cfg.Contains(Position{X: 5, Y: 0}))
	assert.False(t, cfg.Contains(Position{X: 0, Y: 3}))
	assert.False(t, cfg.Contains(Position{X: -1, Y: 0}))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to RequestStatus
		ok       bool
	}{
		{RequestWaiting, RequestAssigned, true},
		{RequestWaiting, RequestFailed, true},
		{RequestAssigned, RequestCompleted, true},
		{RequestAssigned, RequestFailed, true},
		{RequestWaiting, RequestCompleted, false},
		{RequestAssigned, RequestWaiting, false},
		{RequestCompleted, RequestFailed, false},
		{RequestFailed, RequestWaiting, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestRideRequestTransition(t *testing.T) {
	r := &RideRequest{ID: 1, Status: RequestWaiting}
	now := time.Unix(10, 0)
	require.NoError(t, r.Transition(RequestAssigned, 3, now))
	assert.Equal(t, uint64(3), r.UpdatedTick)
	assert.Equal(t, now, r.UpdatedAt)
	require.NoError(t, r.Transition(RequestCompleted, 5, now))
	err := r.Transition(RequestFailed, 6, now)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, RequestCompleted, r.Status)
}

func TestParseIDs(t *testing.T) {
	id, err := ParseDriverID("Driver 12")
	require.NoError(t, err)
	assert.Equal(t, DriverID(12), id)

	id, err = ParseDriverID("7")
	require.NoError(t, err)
	assert.Equal(t, DriverID(7), id)

	rid, err := ParseRiderID("rider-4")
	require.NoError(t, err)
	assert.Equal(t, RiderID(4), rid)

	_, err = ParseRequestID("Request x")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = ParseDriverID("0")
	assert.Error(t, err)
}

func TestDriverJSONShape(t *testing.T) {
	d := NewDriver(2, Position{X: 1, Y: 3})
	d.Assign(5, Position{X: 4, Y: 4})
	data, err := json.Marshal(d)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "Driver 2", m["id"])
	assert.Equal(t, "Request 5", m["assignedRequestId"])
	assert.Equal(t, float64(1), m["x"])
	assert.Equal(t, "on_trip", m["status"])
	assert.Equal(t, "to_pickup", m["tripPhase"])
}

func TestDriverLifecycle(t *testing.T) {
	d := NewDriver(1, Position{})
	d.IdleTicks = 4
	d.Assign(9, Position{X: 2})
	assert.Equal(t, DriverOnTrip, d.Status)
	assert.Equal(t, 0, d.IdleTicks)
	d.HeadTo(Position{X: 2, Y: 2})
	assert.Equal(t, PhaseToDropoff, d.TripPhase)

	c := d.Clone()
	c.Target.X = 99
	assert.Equal(t, 2, d.Target.X, "clone must not share target")

	d.Release(true)
	assert.Equal(t, DriverAvailable, d.Status)
	assert.Nil(t, d.AssignedRequest)
	assert.Nil(t, d.Target)
	assert.Equal(t, PhaseNone, d.TripPhase)
	assert.Equal(t, 1, d.TotalTrips)
}

func TestConfigPatch(t *testing.T) {
	w := 8
	cfg := ConfigPatch{GridWidth: &w}.Apply(DefaultSimulationConfig())
	assert.Equal(t, 8, cfg.GridWidth)
	assert.Equal(t, 20, cfg.GridHeight)
	require.NoError(t, cfg.Validate())

	cfg.DriverSpeed = 0
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
}
