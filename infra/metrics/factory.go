package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/ridesim/core/factory"
	coremetrics "github.com/kilianp07/ridesim/core/metrics"
)

// init registers the built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		var opts struct {
			SkipHealth bool `json:"skip_health_check"`
		}
		if err := factory.Decode(conf, &opts); err != nil {
			return nil, err
		}
		if opts.SkipHealth {
			return NewInfluxSink(c), nil
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
