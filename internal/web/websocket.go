package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/m17-go/m17/internal/logger"
)

// Event is a single dashboard event broadcast to every connected
// websocket client.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e *Event) marshal() ([]byte, error) {
	return json.Marshal(e)
}

type wsClient struct {
	id       string
	conn     *websocket.Conn
	messages chan []byte
}

// Hub manages connected websocket clients and fans out broadcast
// events to each of them.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan Event
	register   chan *wsClient
	unregister chan *wsClient
	logger     *logger.Logger
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
}

// NewHub creates an idle Hub; call Run to start its event loop.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		logger:     log.WithComponent("web.ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run drives the hub's register/unregister/broadcast loop until ctx
// is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Debug("client connected", logger.String("client_id", c.id))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.messages)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			data, err := ev.marshal()
			if err != nil {
				h.logger.Error("failed to marshal event", logger.Error(err))
				continue
			}
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.messages <- data:
				default:
					h.logger.Warn("client buffer full, dropping event", logger.String("client_id", c.id))
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.messages)
			}
			h.clients = make(map[*wsClient]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast enqueues ev for delivery to every connected client.
func (h *Hub) Broadcast(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("broadcast channel full, dropping event", logger.String("event_type", ev.Type))
	}
}

// ServeHTTP upgrades the request to a websocket and pumps broadcast
// events to the new client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", logger.Error(err))
		return
	}

	client := &wsClient{
		id:       r.RemoteAddr,
		conn:     conn,
		messages: make(chan []byte, 32),
	}
	h.register <- client

	go h.readPump(client)
	h.writePump(client)
}

// readPump discards inbound messages (the dashboard feed is one-way)
// but must read to process control frames and detect disconnects.
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	for msg := range c.messages {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
