// Package websocket broadcasts dashboard update events to connected
// clients. The hub fans one Message out to every client; slow clients
// are dropped rather than allowed to stall the broadcast loop.
package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oakmund/fleetboard/pkg/logger"
)

// Message is one event pushed to dashboard clients.
type Message struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Server is the websocket broadcast hub.
type Server struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan *Message
}

// NewServer creates a new websocket hub
func NewServer(allowedOrigins []string, logger *logger.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		logger:  logger.Named("websocket"),
		clients: make(map[*client]struct{}),
	}
}

// HandleConnection upgrades an HTTP request and services the client until
// it disconnects.
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{
		conn: conn,
		send: make(chan *Message, 64),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Debug("Websocket client connected",
		logger.String("remote_addr", r.RemoteAddr),
		logger.Int("clients", count))

	go s.writeLoop(c)
	s.readLoop(c)
}

// Broadcast queues a message for every connected client.
func (s *Server) Broadcast(msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			// Client is not keeping up; closing the channel ends its
			// write loop and the read loop cleans up.
			s.logger.Warn("Dropping slow websocket client")
			go s.remove(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				s.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.remove(c)
				return
			}
		}
	}
}

func (s *Server) readLoop(c *client) {
	defer s.remove(c)
	c.conn.SetReadLimit(4096)
	for {
		// Clients never send data; the read loop only notices closes.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	c.conn.Close()
}
