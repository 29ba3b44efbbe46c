package bridgetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/grovetools/ckanconsole/pkg/bridge"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server exposes a FakeHost over the WebSocket envelope protocol.
type Server struct {
	*httptest.Server
	Host *FakeHost

	mu         sync.Mutex
	conns      []*serverConn
	userAgents []string
}

type serverConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *serverConn) send(env bridge.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(env)
}

// NewServer starts a server backed by host. Callers must Close it.
func NewServer(host *FakeHost) *Server {
	s := &Server{Host: host}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// WSURL returns the ws:// address of the server.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http")
}

// Emit sends an event envelope to every connected client.
func (s *Server) Emit(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	conns := append([]*serverConn(nil), s.conns...)
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.send(bridge.Envelope{Kind: bridge.KindEvent, Event: event, Payload: raw}); err != nil {
			return err
		}
	}
	return nil
}

// UserAgents returns the User-Agent of every accepted connection in order.
func (s *Server) UserAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.userAgents...)
}

// DropConnections closes every client connection without a close frame.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, c := range conns {
		c.conn.Close()
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.userAgents = append(s.userAgents, r.UserAgent())
	s.mu.Unlock()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &serverConn{conn: conn}
	s.mu.Lock()
	s.conns = append(s.conns, c)
	s.mu.Unlock()
	defer conn.Close()

	for {
		var env bridge.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		if env.Kind != bridge.KindRequest {
			continue
		}
		go func(req bridge.Envelope) {
			resp := bridge.Envelope{Kind: bridge.KindResponse, ID: req.ID}
			result, err := s.Host.Serve(req.Command, req.Args)
			if err != nil {
				resp.Error = err.Error()
			} else {
				resp.OK = true
				resp.Result = result
			}
			_ = c.send(resp)
		}(env)
	}
}
