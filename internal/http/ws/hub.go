// Package ws pushes progression events (level-ups, new characters) to the
// browser over websockets. The Hub keeps the open connections per user and
// implements services.Publisher, so services publish without knowing about
// transports.
//
// Each connection runs a read pump (keeps the pong deadline fresh, discards
// client frames) and a write pump (drains the send queue, pings on a timer).
// A slow client whose queue is full drops events rather than blocking the
// publisher.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-tasuki-companion/internal/services"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4 * 1024
	sendQueue      = 32
)

// Hub fans events out to the connections of the addressed user.
type Hub struct {
	pingPeriod time.Duration
	pongWait   time.Duration
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

type client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// NewHub returns a Hub that pings every pingPeriod. checkOrigin may be nil to
// accept any origin.
func NewHub(pingPeriod time.Duration, checkOrigin func(r *http.Request) bool) *Hub {
	if pingPeriod <= 0 {
		pingPeriod = 30 * time.Second
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		pingPeriod: pingPeriod,
		// must exceed pingPeriod
		pongWait: pingPeriod * 10 / 9,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			CheckOrigin:      checkOrigin,
		},
		clients: make(map[string]map[*client]struct{}),
	}
}

var _ services.Publisher = (*Hub)(nil)

// Publish queues e for every connection of e.UserID.
func (h *Hub) Publish(e services.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("type", string(e.Type)).Msg("ws: encode event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[e.UserID] {
		select {
		case c.send <- payload:
		default:
			log.Warn().Str("user_id", c.userID).Str("type", string(e.Type)).Msg("ws: send queue full, event dropped")
		}
	}
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Serve upgrades the request and registers the socket for userID. It returns
// once the pumps are started.
func (h *Hub) Serve(c *gin.Context, userID string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Warn().Err(err).Msg("ws: upgrade failed")
		return
	}
	cl := &client{hub: h, userID: userID, conn: conn, send: make(chan []byte, sendQueue)}
	h.register(cl)

	go cl.writePump()
	go cl.readPump()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		if set, ok := h.clients[c.userID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
		}
		close(c.send)
		h.mu.Unlock()
	})
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.unregister(c)
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
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
