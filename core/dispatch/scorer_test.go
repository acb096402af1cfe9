package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridesim/core/model"
)

func driverAt(id int, x, y int) *model.Driver {
	return model.NewDriver(model.DriverID(id), model.Position{X: x, Y: y})
}

func TestScorerFormula(t *testing.T) {
	s := NewScorer(DefaultConfig())
	d := driverAt(1, 0, 0)
	d.TotalTrips = 2
	d.IdleTicks = 5
	sc := s.Evaluate(d, model.Position{X: 3, Y: 1}, 1)
	assert.Equal(t, 4, sc.ETA)
	assert.Equal(t, 20.0, sc.FairnessBonus)
	assert.Equal(t, 5.0, sc.IdleBonus)
	assert.Equal(t, 19.0, sc.Score)
}

func TestScorerIdleBonusCap(t *testing.T) {
	s := NewScorer(DefaultConfig())
	d := driverAt(1, 0, 0)
	d.IdleTicks = 500
	assert.Equal(t, 50.0, s.Evaluate(d, model.Position{}, 1).IdleBonus)

	uncapped := NewScorer(Config{FairnessWeight: 10, IdleWeight: 1})
	assert.Equal(t, 500.0, uncapped.Evaluate(d, model.Position{}, 1).IdleBonus)
}

func TestScorerUsesSpeedForETA(t *testing.T) {
	s := NewScorer(DefaultConfig())
	sc := s.Evaluate(driverAt(1, 0, 0), model.Position{X: 5}, 2)
	assert.Equal(t, 3, sc.ETA)
}

func TestSelectTieBreaksOnLowerID(t *testing.T) {
	s := NewScorer(DefaultConfig())
	pickup := model.Position{X: 3, Y: 3}
	d2 := driverAt(2, 0, 3)
	d1 := driverAt(1, 3, 0)
	for i := 0; i < 10; i++ {
		best, ok := s.Select(pickup, []*model.Driver{d2, d1}, 1)
		require.True(t, ok)
		assert.Equal(t, model.DriverID(1), best.DriverID)
	}
}

func TestSelectPrefersIdleDriver(t *testing.T) {
	s := NewScorer(DefaultConfig())
	pickup := model.Position{X: 5, Y: 5}
	fresh := driverAt(1, 5, 2)
	waiting := driverAt(2, 5, 8)
	waiting.IdleTicks = 10
	best, ok := s.Select(pickup, []*model.Driver{fresh, waiting}, 1)
	require.True(t, ok)
	assert.Equal(t, model.DriverID(2), best.DriverID)
}

func TestSelectPenalizesBusyDriver(t *testing.T) {
	s := NewScorer(DefaultConfig())
	pickup := model.Position{X: 0, Y: 0}
	near := driverAt(1, 1, 0)
	near.TotalTrips = 1
	far := driverAt(2, 5, 0)
	best, _ := s.Select(pickup, []*model.Driver{near, far}, 1)
	assert.Equal(t, model.DriverID(2), best.DriverID)
}

func TestSelectEmpty(t *testing.T) {
	_, ok := NewScorer(DefaultConfig()).Select(model.Position{}, nil, 1)
	assert.False(t, ok)
}

func TestRankOrder(t *testing.T) {
	s := NewScorer(DefaultConfig())
	ds := []*model.Driver{driverAt(3, 4, 0), driverAt(1, 2, 0), driverAt(2, 2, 0)}
	ranked := s.Rank(model.Position{}, ds, 1)
	require.Len(t, ranked, 3)
	assert.Equal(t, []model.DriverID{1, 2, 3}, []model.DriverID{ranked[0].DriverID, ranked[1].DriverID, ranked[2].DriverID})
}
