package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridesim/config"
	"github.com/kilianp07/ridesim/core/dispatch/logging"
	"github.com/kilianp07/ridesim/core/factory"
	"github.com/kilianp07/ridesim/core/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	cfg.Logging.Enabled = true
	cfg.Logging.Path = filepath.Join(t.TempDir(), "dispatch.log")
	return cfg
}

func TestServiceRunsAndRecordsDecisions(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- svc.Run(ctx) }()

	_, err = svc.Engine.AddDriver(0, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		// the recorder subscribes inside Run; keep adding riders until one is seen
		if _, _, err := svc.Engine.AddRider(pos(0, 0), pos(0, 0)); err != nil {
			return false
		}
		svc.Engine.Tick()
		recs, err := svc.store.Query(context.Background(), logging.LogQuery{Kind: logging.KindCompleted})
		return err == nil && len(recs) > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestServiceDrainsDecisionLogOnShutdown(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- svc.Run(ctx) }()

	_, err = svc.Engine.AddDriver(0, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		if _, _, err := svc.Engine.AddRider(pos(0, 0), pos(0, 0)); err != nil {
			return false
		}
		svc.Engine.Tick()
		recs, err := svc.store.Query(context.Background(), logging.LogQuery{Kind: logging.KindCompleted})
		return err == nil && len(recs) > 0
	}, 2*time.Second, 20*time.Millisecond)

	const burst = 150
	want := make(map[model.RequestID]bool, burst)
	for i := 0; i < burst; i++ {
		_, req, err := svc.Engine.AddRider(pos(5, 5), pos(6, 6))
		require.NoError(t, err)
		want[req.ID] = true
	}
	for i := 0; i < burst; i++ {
		_, err := svc.Engine.AddDriver(5, 5)
		require.NoError(t, err)
	}
	svc.Engine.Tick()

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("service did not stop")
	}

	recs, err := svc.store.Query(context.Background(), logging.LogQuery{Kind: logging.KindAssigned})
	require.NoError(t, err)
	for _, rec := range recs {
		delete(want, rec.RequestID)
	}
	assert.Empty(t, want, "assignments missing from the decision log")
}

func TestServiceAutoTick(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.Enabled = false
	cfg.Simulation.AutoTick = true
	cfg.Simulation.TickIntervalMS = 5
	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.Engine.CurrentTick() >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewRejectsUnknownSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err := New(cfg)
	assert.Error(t, err)
}

func pos(x, y int) model.Position { return model.Position{X: x, Y: y} }
