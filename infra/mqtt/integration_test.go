//go:build !no_containers

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/ridesim/core/events"
	"github.com/kilianp07/ridesim/core/model"
)

func startMosquitto(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:1.6",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("start mosquitto: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })
	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1883")
	require.NoError(t, err)
	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func TestEventPublisherBrokerRoundTrip(t *testing.T) {
	broker := startMosquitto(t)

	received := make(chan brokerMessage, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("ridesim-test-sub"))
	var tok paho.Token
	for i := 0; i < 10; i++ {
		tok = sub.Connect()
		if tok.Wait() && tok.Error() == nil {
			break
		}
		time.Sleep(300 * time.Millisecond)
	}
	require.NoError(t, tok.Error())
	defer sub.Disconnect(100)
	tok = sub.Subscribe("ridesim/events/#", 1, func(_ paho.Client, m paho.Message) {
		var msg brokerMessage
		if json.Unmarshal(m.Payload(), &msg) == nil {
			msg.topic = m.Topic()
			received <- msg
		}
	})
	tok.Wait()
	require.NoError(t, tok.Error())

	pub, err := NewEventPublisher(Config{Enabled: true, Broker: broker, ClientID: "ridesim-test-pub", QoS: 1})
	require.NoError(t, err)
	defer pub.Close()

	ev := events.TickCompleted{Meta: events.Meta{Tick: 12, Time: time.Now()}, Stats: model.SimulationStats{CompletedRides: 4}}
	require.NoError(t, pub.PublishEvent(ev))

	select {
	case msg := <-received:
		require.Equal(t, "ridesim/events/tick_completed", msg.topic)
		require.Equal(t, "tick_completed", msg.Type)
		require.Equal(t, uint64(12), msg.Tick)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

type brokerMessage struct {
	topic string
	Type  string `json:"type"`
	Tick  uint64 `json:"tick"`
}
