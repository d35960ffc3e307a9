package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 2 * time.Second
	clientSendSize = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to websocket subscribers. A slow subscriber
// loses messages rather than holding up the publisher.
type Hub struct {
	name    string
	clients map[*client]struct{}
	mu      sync.RWMutex
	logger  *log.Logger
}

// NewHub creates an empty hub. name labels log lines.
func NewHub(name string, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{name: name, clients: make(map[*client]struct{}), logger: logger}
}

// ServeHTTP upgrades the request and keeps the subscriber until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("%s: websocket upgrade error: %v", h.name, err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendSize)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writeLoop(c, done)

	// Reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
	<-done
	conn.Close()
}

func (h *Hub) writeLoop(c *client, done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Broadcast queues msg for every subscriber.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
