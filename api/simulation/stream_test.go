package simulation

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridesim/core/dispatch"
	"github.com/kilianp07/ridesim/core/events"
	"github.com/kilianp07/ridesim/core/logger"
	"github.com/kilianp07/ridesim/core/model"
	"github.com/kilianp07/ridesim/core/simulation"
	infralogger "github.com/kilianp07/ridesim/infra/logger"
	"github.com/kilianp07/ridesim/internal/eventbus"
)

func nopLogger() logger.Logger { return infralogger.NopLogger{} }

func readState(t *testing.T, conn *websocket.Conn) simulation.State {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var st simulation.State
	require.NoError(t, conn.ReadJSON(&st))
	return st
}

func TestStreamPushesAfterTickAndReset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bus := eventbus.NewTyped[events.Event]()
	defer bus.Close()
	eng, err := simulation.New(simulation.Options{
		Config:  model.DefaultSimulationConfig(),
		Scoring: dispatch.DefaultConfig(),
		Bus:     bus,
	})
	require.NoError(t, err)

	stream := NewStream(eng, nopLogger(), nil)
	sub := bus.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stream.Run(ctx, sub)

	srv := httptest.NewServer(NewRouter(eng, RouterOptions{Stream: stream}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/simulation/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readState(t, conn)
	assert.Equal(t, uint64(0), first.Tick)
	assert.Equal(t, 1, stream.Clients())

	_, err = eng.AddDriver(3, 3)
	require.NoError(t, err)
	eng.Tick()
	st := readState(t, conn)
	assert.Equal(t, uint64(1), st.Tick)
	require.Len(t, st.Drivers, 1)
	assert.Equal(t, 1, st.Drivers[0].IdleTicks)

	eng.Reset()
	st = readState(t, conn)
	assert.Equal(t, uint64(0), st.Tick)
	assert.Empty(t, st.Drivers)
}

func TestStreamBroadcastWithoutClients(t *testing.T) {
	eng, err := simulation.New(simulation.Options{Config: model.DefaultSimulationConfig(), Scoring: dispatch.DefaultConfig()})
	require.NoError(t, err)
	s := NewStream(eng, nopLogger(), nil)
	s.Broadcast(eng.State())
	assert.Zero(t, s.Clients())
}
