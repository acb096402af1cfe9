package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/ridesim/core/metrics"
	"github.com/kilianp07/ridesim/infra/logger"
)

// InfluxConfig holds the InfluxDB connection settings.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes simulation records to InfluxDB using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A trailing
// /api/v2/write in the URL is accepted.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB and returns a NopSink when the
// health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTick writes a tick_snapshot point.
func (s *InfluxSink) RecordTick(snap coremetrics.TickSnapshot) error {
	st := snap.Stats
	p := write.NewPointWithMeasurement("tick_snapshot").
		AddTag("component", "simulation").
		AddField("tick", int64(snap.Tick)).
		AddField("total_requests", st.TotalRequests).
		AddField("completed_rides", st.CompletedRides).
		AddField("failed_rides", st.FailedRides).
		AddField("average_eta", round3(st.AverageETA)).
		AddField("active_drivers", st.ActiveDrivers).
		AddField("total_drivers", st.TotalDrivers).
		AddField("queue_length", snap.QueueLength).
		AddField("available_drivers", snap.AvailableDrivers).
		SetTime(snap.Time)
	return s.write(p)
}

// RecordAssignment writes a request_assigned point.
func (s *InfluxSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	p := write.NewPointWithMeasurement("request_assigned").
		AddTag("driver_id", ev.DriverID.String()).
		AddTag("component", "dispatch").
		AddField("request_id", ev.RequestID.String()).
		AddField("eta", ev.ETA).
		AddField("score", round3(ev.Score)).
		AddField("candidates", ev.Candidates).
		AddField("tick", int64(ev.Tick)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordOutcome writes a request_outcome point.
func (s *InfluxSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	p := write.NewPointWithMeasurement("request_outcome").
		AddTag("status", string(ev.Status)).
		AddTag("component", "dispatch")
	if ev.DriverID != nil {
		p = p.AddTag("driver_id", ev.DriverID.String())
	}
	p = p.AddField("request_id", ev.RequestID.String()).
		AddField("rider_id", ev.RiderID.String()).
		AddField("duration_ticks", int64(ev.Duration)).
		AddField("tick", int64(ev.Tick))
	if ev.Reason != "" {
		p = p.AddField("reason", ev.Reason)
	}
	return s.write(p.SetTime(ev.Time))
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
