//go:build !no_containers

package metrics

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	coremetrics "github.com/kilianp07/ridesim/core/metrics"
	"github.com/kilianp07/ridesim/core/model"
)

const (
	itOrg    = "ridesim"
	itBucket = "simulation"
	itToken  = "it-token"
)

// startInflux runs an InfluxDB 2.7 container initialised with itOrg, itBucket
// and itToken and returns its base URL.
func startInflux(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "influxdb:2.7",
			ExposedPorts: []string{"8086/tcp"},
			Env: map[string]string{
				"DOCKER_INFLUXDB_INIT_MODE":        "setup",
				"DOCKER_INFLUXDB_INIT_USERNAME":    "admin",
				"DOCKER_INFLUXDB_INIT_PASSWORD":    "adminpassword",
				"DOCKER_INFLUXDB_INIT_ORG":         itOrg,
				"DOCKER_INFLUXDB_INIT_BUCKET":      itBucket,
				"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": itToken,
			},
			WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("start influx: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8086")
	require.NoError(t, err)
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func TestInfluxSinkContainerRoundTrip(t *testing.T) {
	url := startInflux(t)
	cfg := InfluxConfig{URL: url, Token: itToken, Org: itOrg, Bucket: itBucket}

	sink := NewInfluxSinkWithFallback(cfg)
	influx, ok := sink.(*InfluxSink)
	require.True(t, ok, "health check should pass against a live server")
	defer influx.Close()

	require.NoError(t, influx.RecordTick(coremetrics.TickSnapshot{
		Tick:        7,
		Time:        time.Now(),
		Stats:       model.SimulationStats{TotalRequests: 3, CompletedRides: 2, TotalDrivers: 2},
		QueueLength: 1,
	}))

	client := influxdb2.NewClient(url, itToken)
	defer client.Close()
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -1h)
  |> filter(fn: (r) => r._measurement == "tick_snapshot" and r._field == "completed_rides")`, itBucket)

	var got any
	require.Eventually(t, func() bool {
		res, err := client.QueryAPI(itOrg).Query(context.Background(), flux)
		if err != nil {
			return false
		}
		defer res.Close()
		if res.Next() {
			got = res.Record().Value()
			return true
		}
		return false
	}, 10*time.Second, 200*time.Millisecond)
	assert.EqualValues(t, 2, got)
}
