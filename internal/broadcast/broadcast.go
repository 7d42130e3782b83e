// Package broadcast implements stage B's downstream broadcaster: the set
// of live push-channel subscribers and the fan-out of each closed bar to
// them as a JSON text frame.
package broadcast

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/marketpulse/tickmesh/internal/obs"
	"github.com/marketpulse/tickmesh/internal/ticks"
)

// Client is one live push-channel subscriber.
type Client struct {
	id        uuid.UUID
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Hub maintains the set of live push-channel subscribers and fans out
// closed bars to them.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHub builds an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request to the push protocol and registers the new
// client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("broadcast: upgrade failed", "error", err)
		return
	}

	c := &Client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	obs.BroadcastClientsActive.Set(float64(len(h.clients)))
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) readPump(c *Client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *Client) {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		obs.BroadcastClientsActive.Set(float64(len(h.clients)))
	}
	h.mu.Unlock()
	c.closeOnce.Do(func() { close(c.done) })
}

// Broadcast JSON-encodes bar and sends it as a text frame to every live
// client. The client set is snapshotted and the mutex released before any
// send happens, so one slow subscriber cannot serialize or deadlock the
// broadcaster; a client whose own queue is full simply misses this bar.
func (h *Hub) Broadcast(bar ticks.Bar) {
	data, err := json.Marshal(bar)
	if err != nil {
		h.logger.Error("broadcast: marshal bar failed", "error", err)
		return
	}

	h.mu.Lock()
	snapshot := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	for _, c := range snapshot {
		select {
		case <-c.done:
			continue
		default:
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("broadcast: slow client dropped a bar", "client", c.id)
		}
	}
}
