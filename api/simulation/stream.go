package simulation

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kilianp07/ridesim/core/events"
	"github.com/kilianp07/ridesim/core/logger"
	"github.com/kilianp07/ridesim/core/simulation"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 8
)

// Stream pushes a state snapshot to every websocket client after each tick
// and reset.
type Stream struct {
	eng      *simulation.Engine
	log      logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan simulation.State
}

// NewStream returns a stream over eng. checkOrigin may be nil to accept any origin.
func NewStream(eng *simulation.Engine, log logger.Logger, checkOrigin func(*http.Request) bool) *Stream {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Stream{
		eng:      eng,
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		clients:  make(map[*client]struct{}),
	}
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Run forwards snapshots until ctx is done or sub closes.
func (s *Stream) Run(ctx context.Context, sub <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case ev, ok := <-sub:
			if !ok {
				s.closeAll()
				return
			}
			switch ev.(type) {
			case events.TickCompleted, events.SimulationReset:
				s.Broadcast(s.eng.State())
			}
		}
	}
}

// Broadcast queues st for every client. Slow clients skip the snapshot.
func (s *Stream) Broadcast(st simulation.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- st:
		default:
		}
	}
}

// Serve upgrades the request and sends the current state right away.
func (s *Stream) Serve(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	cl := &client{conn: conn, send: make(chan simulation.State, sendBuffer)}
	cl.send <- s.eng.State()
	s.mu.Lock()
	s.clients[cl] = struct{}{}
	s.mu.Unlock()

	go s.readLoop(cl)
	s.writeLoop(cl)
}

func (s *Stream) remove(cl *client) {
	s.mu.Lock()
	if _, ok := s.clients[cl]; ok {
		delete(s.clients, cl)
		close(cl.send)
	}
	s.mu.Unlock()
}

func (s *Stream) closeAll() {
	s.mu.Lock()
	for cl := range s.clients {
		delete(s.clients, cl)
		close(cl.send)
	}
	s.mu.Unlock()
}

// readLoop discards client messages and detects disconnects.
func (s *Stream) readLoop(cl *client) {
	defer s.remove(cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Stream) writeLoop(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case st, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(st); err != nil {
				s.log.Debugf("websocket write: %v", err)
				s.remove(cl)
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.remove(cl)
				return
			}
		}
	}
}
