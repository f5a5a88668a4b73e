// Package events pushes session snapshots to browsers over websockets.
package events

import (
	"encoding/json"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "events").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "events").Logger()
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 32
)

// Event is one message on the feed.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Data      any       `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

// SnapshotFunc returns the current state of a session, or false if it does not exist.
type SnapshotFunc func(sessionID string) (any, bool)

type client struct {
	id        string
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
}

// Hub fans session events out to the websocket clients subscribed to them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	closed   bool
	upgrader websocket.Upgrader
	snapshot SnapshotFunc
}

// NewHub creates a hub. allowedOrigins limits the websocket handshake, "*" allows any.
func NewHub(allowedOrigins []string, snapshot SnapshotFunc) *Hub {
	h := &Hub{
		clients:  make(map[string]map[*client]struct{}),
		snapshot: snapshot,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// ServeWS upgrades the request and subscribes it to the session named by
// the "session" query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session query parameter is required", http.StatusBadRequest)
		return
	}

	var initial any
	if h.snapshot != nil {
		snap, ok := h.snapshot(sessionID)
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		initial = snap
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &client{
		id:        uuid.NewString(),
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
	}
	var first *Event
	if initial != nil {
		first = &Event{Type: "session.snapshot", SessionID: sessionID, Data: initial, At: time.Now().UTC()}
	}
	if !h.add(c, first) {
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

// add subscribes c and queues first while holding the lock, so a concurrent
// Drop or Close cannot close c.send in between.
func (h *Hub) add(c *client, first *Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if first != nil {
		h.deliver(c, *first)
	}
	subs, ok := h.clients[c.sessionID]
	if !ok {
		subs = make(map[*client]struct{})
		h.clients[c.sessionID] = subs
	}
	subs[c] = struct{}{}
	log.Debug().Str("client", c.id).Str("session", c.sessionID).Msg("Client subscribed")
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[c.sessionID]
	if !ok {
		return
	}
	if _, ok := subs[c]; !ok {
		return
	}
	delete(subs, c)
	close(c.send)
	if len(subs) == 0 {
		delete(h.clients, c.sessionID)
	}
}

// Publish sends an event to every subscriber of sessionID. Slow clients
// whose buffer is full miss the event.
func (h *Hub) Publish(sessionID, eventType string, data any) {
	ev := Event{Type: eventType, SessionID: sessionID, Data: data, At: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[sessionID] {
		h.deliver(c, ev)
	}
}

func (h *Hub) deliver(c *client, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("Failed to encode event")
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Warn().Str("client", c.id).Str("type", ev.Type).Msg("Client buffer full, dropping event")
	}
}

// Subscribers returns the number of clients subscribed to sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Drop disconnects all subscribers of sessionID.
func (h *Hub) Drop(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[sessionID] {
		close(c.send)
	}
	delete(h.clients, sessionID)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sessionID, subs := range h.clients {
		for c := range subs {
			close(c.send)
		}
		delete(h.clients, sessionID)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// readPump only handles control frames, the feed is one way.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
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
