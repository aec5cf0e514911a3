package web

import (
	"sync"

	"github.com/gorilla/websocket"
)

// hub fans job updates out to every connected WebSocket client. All writes
// go through the hub's lock so a broadcast and an initial snapshot never
// interleave on one connection.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]bool)}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	if h.conns[c] {
		delete(h.conns, c)
		c.Close()
	}
	h.mu.Unlock()
}

// send writes one message to one client.
func (h *hub) send(c *websocket.Conn, v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return c.WriteJSON(v)
}

// broadcast writes one message to every client, dropping dead connections.
func (h *hub) broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if err := c.WriteJSON(v); err != nil {
			delete(h.conns, c)
			c.Close()
		}
	}
}
