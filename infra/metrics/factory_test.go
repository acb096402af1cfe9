package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridesim/core/factory"
	coremetrics "github.com/kilianp07/ridesim/core/metrics"
)

func TestBuiltinSinksRegistered(t *testing.T) {
	assert.Subset(t, coremetrics.SinkTypes(), []string{"influx", "nop", "prometheus"})

	s, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, s)

	s, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{
		{Type: "influx", Conf: map[string]any{"url": "http://localhost:8086", "skip_health_check": "true"}},
		{Type: "nop"},
	})
	require.NoError(t, err)
	multi, ok := s.(*coremetrics.MultiSink)
	require.True(t, ok)
	influx, ok := multi.Sinks[0].(*InfluxSink)
	require.True(t, ok)
	influx.Close()
}
