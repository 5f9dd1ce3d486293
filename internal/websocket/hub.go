package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"sentica-backend/internal/logging"
	"sentica-backend/internal/models"
)

// Channel carries progress events between processes when Redis is configured.
const Channel = "sentica:progress"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	// writeWait bounds a single frame write to one client.
	writeWait = 10 * time.Second
	// pingPeriod keeps idle connections alive through proxies.
	pingPeriod = 30 * time.Second
	// sendBuffer is how many events a client may fall behind before it is dropped.
	sendBuffer = 16
)

// client owns one connection. Only its writer goroutine writes to conn.
type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub fans progress events out to every connected client. With a Redis
// client, events go through pub/sub so runs started by another process
// (the CLI) reach the same clients.
type Hub struct {
	mu          sync.RWMutex
	clients     map[uuid.UUID]*client
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewHub(redisClient *redis.Client, logger *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[uuid.UUID]*client),
		redisClient: redisClient,
		logger:      logging.OrDiscard(logger),
	}
}

// Run relays the Redis channel to local clients until ctx is done. Without a
// Redis client it returns immediately.
func (h *Hub) Run(ctx context.Context) {
	if h.redisClient == nil {
		return
	}
	pubsub := h.redisClient.Subscribe(ctx, Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := h.register(conn)
	go h.writeLoop(c)

	// Reads only detect the disconnect; clients never send anything useful.
	go func() {
		defer h.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) register(conn *websocket.Conn) *client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &client{id: uuid.New(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.clients[c.id] = c
	h.logger.Debug("websocket connected", slog.String("conn", c.id.String()), slog.Int("total", len(h.clients)))
	return c
}

// drop removes c and closes its queue and connection. Safe to call more than
// once.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		h.logger.Debug("websocket disconnected", slog.String("conn", c.id.String()))
	}
}

// writeLoop drains c.send until drop closes it or a write fails.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.drop(c)
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("websocket write failed", slog.String("conn", c.id.String()), slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Clients reports the number of open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast queues data for every client without blocking. A client whose
// queue is full is dropped.
func (h *Hub) broadcast(data []byte) {
	var slow []*client
	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("websocket client too slow, disconnecting", slog.String("conn", c.id.String()))
		h.drop(c)
	}
}

// Publish sends msg to every client, through Redis when configured.
func (h *Hub) Publish(ctx context.Context, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("progress event not encodable", slog.String("type", msg.Type), slog.String("error", err.Error()))
		return
	}
	if h.redisClient != nil {
		err := h.redisClient.Publish(ctx, Channel, data).Err()
		if err == nil {
			return
		}
		h.logger.Warn("redis publish failed, delivering locally", slog.String("error", err.Error()))
	}
	h.broadcast(data)
}
