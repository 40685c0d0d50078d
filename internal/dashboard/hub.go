package dashboard

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// client is one connected dashboard page.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// shutdown signals the write pump and closes the connection. The send
// channel stays open so concurrent broadcasts never hit a closed channel.
func (c *client) shutdown() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub fans accepted telemetry out to every connected dashboard page over
// websockets.
type Hub struct {
	clients  cmap.ConcurrentMap[string, *client]
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHub creates a Hub with no connected pages.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: cmap.New[*client](),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Broadcast queues payload for every connected page. A page that cannot
// keep up is skipped rather than allowed to block telemetry fan-out.
func (h *Hub) Broadcast(payload []byte) {
	for item := range h.clients.IterBuffered() {
		select {
		case item.Val.send <- payload:
		default:
		}
	}
}

// Count returns the number of connected pages.
func (h *Hub) Count() int {
	return h.clients.Count()
}

// HandleWS upgrades the request and serves the connection until the page
// goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	h.clients.Set(c.id, c)
	h.logger.Info().Str("client_id", c.id).Int("clients", h.clients.Count()).Msg("Dashboard page connected")

	go h.writePump(c)
	h.readPump(c)
}

// writePump forwards queued payloads to the page.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump drains the connection so pings and close frames are handled,
// and tears the client down when the page disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.clients.Remove(c.id)
		c.shutdown()
		h.logger.Info().Str("client_id", c.id).Msg("Dashboard page disconnected")
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Shutdown disconnects every page. Used when the HTTP server stops.
func (h *Hub) Shutdown() {
	for item := range h.clients.IterBuffered() {
		h.clients.Remove(item.Key)
		item.Val.shutdown()
	}
}
