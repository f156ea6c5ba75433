// Package ws pushes live lobby updates to connected UI clients over
// WebSocket. One Broadcaster fans every message out to all clients;
// slow clients get dropped frames rather than blocking the rest.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// sendBuffer is the per-client outbound queue depth. When it is full
// the frame is dropped for that client; the next snapshot catches it
// back up.
const sendBuffer = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Local companion app: same-machine browser clients only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster manages the connected clients and fans messages out.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	snapshot func() Message // produces the on-connect snapshot
	logger   *slog.Logger
}

// NewBroadcaster creates an empty broadcaster. snapshot may be nil if
// no on-connect state is wanted.
func NewBroadcaster(snapshot func() Message, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		clients:  make(map[*client]struct{}),
		snapshot: snapshot,
		logger:   logger,
	}
}

// ServeHTTP upgrades the request and keeps the connection registered
// until the peer goes away.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := b.addClient(conn)
	defer b.removeClient(c)

	// Reads are only used to detect disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) addClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = struct{}{}
	n := len(b.clients)
	b.mu.Unlock()

	b.logger.Debug("websocket client connected", "clients", n)

	if b.snapshot != nil {
		if data, err := json.Marshal(b.snapshot()); err == nil {
			select {
			case c.send <- data:
			default:
			}
		}
	}
	return c
}

func (b *Broadcaster) removeClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// Broadcast sends a message to every connected client. Clients whose
// queue is full miss this frame.
func (b *Broadcaster) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Warn("could not marshal broadcast message", "type", msg.Type, "error", err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ClientCount returns how many clients are connected.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close drops every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
}
