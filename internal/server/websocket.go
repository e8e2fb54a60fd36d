package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var errNoConnection = errors.New("no connection for player")

type ConnectionConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

// frame is the envelope of every server message.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub holds the WebSocket connections and the room each one is bound to.
// It implements game.Broadcaster.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	rooms    map[string]map[string]*client
	config   ConnectionConfig
	upgrader websocket.Upgrader
}

type client struct {
	id        string
	roomID    string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewHub(config ConnectionConfig) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]*client),
		config:  config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Hub) upgrade(w http.ResponseWriter, r *http.Request) (*client, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade connection: %w", err)
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	log.Info().Str("connection_id", c.id).Str("remote", r.RemoteAddr).Msg("ws connected")
	return c, nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		h.unbindLocked(c)
	}
	h.mu.Unlock()
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (h *Hub) Bind(playerID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[playerID]
	if !ok {
		return
	}
	h.unbindLocked(c)
	c.roomID = roomID
	group := h.rooms[roomID]
	if group == nil {
		group = make(map[string]*client)
		h.rooms[roomID] = group
	}
	group[c.id] = c
}

func (h *Hub) Unbind(playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[playerID]; ok {
		h.unbindLocked(c)
	}
}

func (h *Hub) unbindLocked(c *client) {
	if c.roomID == "" {
		return
	}
	if group := h.rooms[c.roomID]; group != nil {
		delete(group, c.id)
		if len(group) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	c.roomID = ""
}

func (h *Hub) SendToRoom(roomID, event string, payload any) error {
	data, err := json.Marshal(frame{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	h.mu.RLock()
	group := h.rooms[roomID]
	targets := make([]*client, 0, len(group))
	for _, c := range group {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.deliver(c, data)
	}
	return nil
}

func (h *Hub) SendToPlayer(playerID, event string, payload any) error {
	h.mu.RLock()
	c, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		return errNoConnection
	}
	data, err := json.Marshal(frame{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	h.deliver(c, data)
	return nil
}

// deliver queues data without blocking. A client whose buffer is full is
// dropped.
func (h *Hub) deliver(c *client, data []byte) {
	select {
	case c.send <- data:
	case <-c.done:
	default:
		log.Warn().Str("connection_id", c.id).Msg("connection send buffer full, closing connection")
		h.unregister(c)
		_ = c.conn.Close()
	}
}

func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.id).Msg("failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump feeds client frames to handle until the connection drops, then
// calls closed.
func (h *Hub) readPump(c *client, handle func(playerID string, raw []byte), closed func(playerID string)) {
	defer func() {
		closed(c.id)
		h.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(h.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.id).Msg("unexpected websocket close")
			}
			log.Info().Str("connection_id", c.id).Msg("ws disconnected")
			return
		}
		handle(c.id, message)
		_ = c.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	}
}
