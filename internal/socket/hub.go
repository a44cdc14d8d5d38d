// server/internal/socket/hub.go
package socket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 32
)

// client is one dashboard connection with its own outbound queue.
type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub broadcasts change events to every connected dashboard.
type Hub struct {
	clients map[*client]struct{}
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Publish queues the event for every client. A client whose queue is full
// misses the event; the caller is never blocked.
func (h *Hub) Publish(event string, payload any) {
	msg, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		log.Printf("[socket] could not encode %s: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("[socket] queue full for %s, dropping %s", c.userID, event)
		}
	}
}

// Register adds the connection and starts its writer. The returned func
// unregisters it and must be called once the read loop ends.
func (h *Hub) Register(userID string, conn *websocket.Conn) func() {
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("[socket] client registered: %s", userID)

	go c.writeLoop()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, c)
			close(c.send)
			h.mu.Unlock()
			log.Printf("[socket] client unregistered: %s", userID)
		})
	}
}

// Count reports how many clients are connected.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *client) writeLoop() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("[socket] write to %s failed: %v", c.userID, err)
			// Closing the conn ends the handler's read loop, which unregisters.
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
	c.conn.Close()
}
