package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	id    string
	topic string
	conn  *websocket.Conn
	send  chan []byte
	once  sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub holds the websocket connections of this process, grouped by topic
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]*client
	closed bool
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[string]*client)}
}

// Emit delivers the event to the user's local connections
func (h *Hub) Emit(_ context.Context, userID, event string, payload any) error {
	msg, err := newMessage(userID, event, payload)
	if err != nil {
		return err
	}
	h.Publish(msg)
	return nil
}

// Publish delivers an already encoded message. Slow clients whose buffer is full are dropped.
func (h *Hub) Publish(msg Message) {
	data, err := json.Marshal(frame{Event: msg.Event, Payload: msg.Payload})
	if err != nil {
		slog.Warn("Failed to encode realtime frame", "event", msg.Event, "error", err)
		return
	}

	topic := UserTopic(msg.UserID)
	h.mu.RLock()
	var slow []*client
	for _, c := range h.topics[topic] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("Dropping slow realtime client", "client_id", c.id, "topic", topic)
		h.unregister(c)
	}
}

// ClientCount reports how many connections joined the user's topic
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[UserTopic(userID)])
}

// ServeWS upgrades the request and joins the connection to the user's topic.
// It returns once the connection is set up; reading and writing continue in the background.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		id:    uuid.NewString(),
		topic: UserTopic(userID),
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
	}
	if !h.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		return conn.Close()
	}
	slog.Debug("Realtime client connected", "client_id", c.id, "topic", c.topic)

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	topics := h.topics
	h.topics = make(map[string]map[string]*client)
	h.mu.Unlock()

	for _, clients := range topics {
		for _, c := range clients {
			c.close()
		}
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	clients, ok := h.topics[c.topic]
	if !ok {
		clients = make(map[string]*client)
		h.topics[c.topic] = clients
	}
	clients[c.id] = c
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if clients, ok := h.topics[c.topic]; ok {
		if _, ok := clients[c.id]; ok {
			delete(clients, c.id)
			if len(clients) == 0 {
				delete(h.topics, c.topic)
			}
		}
	}
	h.mu.Unlock()
	c.close()
}

// readPump discards client input; it only exists to process pongs and notice disconnects.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("Realtime client read error", "client_id", c.id, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Debug("Failed to write ping", "client_id", c.id, "error", err)
				return
			}
		}
	}
}
