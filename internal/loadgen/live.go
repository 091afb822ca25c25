package loadgen

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/loadscope/loadscope/internal/logging"
	"github.com/loadscope/loadscope/pkg/types"
)

// LiveServer pushes each stats snapshot to connected websocket clients, so a
// long repetition can be watched while it runs.
type LiveServer struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conns    map[*websocket.Conn]*sync.Mutex
}

func NewLiveServer() *LiveServer {
	return &LiveServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local monitoring endpoint; any origin may watch.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// HandleStats upgrades the request and keeps the connection registered until
// the client goes away.
func (s *LiveServer) HandleStats(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade error", logging.Field{Key: "error", Value: err})
		return
	}
	defer conn.Close()

	// Reads are only for disconnect detection.
	conn.SetReadLimit(512)

	s.mu.Lock()
	s.conns[conn] = &sync.Mutex{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends the row to every connected client. Slow or broken clients
// are dropped rather than allowed to stall the snapshot loop.
func (s *LiveServer) Broadcast(row types.SampleRow) {
	s.mu.Lock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(s.conns))
	for conn, wmu := range s.conns {
		targets[conn] = wmu
	}
	s.mu.Unlock()

	for conn, wmu := range targets {
		wmu.Lock()
		err := conn.WriteJSON(row)
		wmu.Unlock()
		if err != nil {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
			conn.Close()
		}
	}
}

// Close drops all connected clients.
func (s *LiveServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
}
