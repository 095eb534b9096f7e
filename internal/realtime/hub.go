package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains the set of connected live-feed clients and broadcasts
// messages to them. Redis pub/sub carries events across instances: local
// broadcast + publish, with the subscription feeding remote events back in.
type Hub struct {
	clients   map[string]*Client
	mu        sync.RWMutex
	logger    *zap.Logger
	publisher Publisher
}

// Publisher publishes a live-feed event to other instances.
type Publisher interface {
	PublishLiveEvent(event string, payload []byte) error
}

// Subscriber subscribes to the live-feed channel and invokes the handler for
// incoming events.
type Subscriber interface {
	SubscribeLive(handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a websocket hub. When a subscriber is given, events from
// other instances are re-broadcast to local clients.
func NewHub(logger *zap.Logger, publisher Publisher, subscriber Subscriber) *Hub {
	h := &Hub{
		clients:   make(map[string]*Client),
		logger:    logger,
		publisher: publisher,
	}
	if subscriber != nil {
		if _, err := subscriber.SubscribeLive(func(event string, payload []byte) {
			h.broadcastLocal(event, json.RawMessage(payload))
		}); err != nil {
			logger.Warn("live feed subscription failed", zap.Error(err))
		}
	}
	return h
}

// Register adds a client to the feed.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined live feed", zap.String("client_id", c.ID))
}

// Unregister removes a client from the feed.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	h.logger.Debug("client left live feed", zap.String("client_id", c.ID))
}

// ClientCount returns the number of connected clients on this instance.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastLocal(event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := Message{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Broadcast pushes an event to every connected client. With a publisher
// wired, the event goes through Redis only and the subscription callback
// performs the single broadcast for all instances, this one included.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.publisher != nil {
		if err := h.publisher.PublishLiveEvent(event, data); err != nil {
			h.logger.Warn("live feed publish failed", zap.Error(err))
		}
		return
	}
	h.broadcastLocal(event, json.RawMessage(data))
}
