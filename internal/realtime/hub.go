// Package realtime pushes dashboard notifications to connected browsers
// over WebSocket.
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the frame sent to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	userID uint64
	role   string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks connected clients by user and role.  A client whose send
// buffer is full is dropped rather than blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// SendToUser delivers msg to every connection of userID with role.  It
// returns the number of connections reached.
func (h *Hub) SendToUser(role string, userID uint64, msg Message) int {
	return h.send(msg, func(c *client) bool { return c.role == role && c.userID == userID })
}

// SendToRole delivers msg to every connection with role.
func (h *Hub) SendToRole(role string, msg Message) int {
	return h.send(msg, func(c *client) bool { return c.role == role })
}

func (h *Hub) send(msg Message, match func(*client) bool) int {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("realtime: marshal %s: %v", msg.Type, err)
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- b:
			n++
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
	return n
}

// Serve upgrades the request and attaches the connection for userID/role.
// It returns once the pumps are started.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uint64, role string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{userID: userID, role: role, conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(c)
	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// readPump only services control frames; client messages are ignored.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
