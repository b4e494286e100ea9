// Package realtime pushes scan results to operators watching an event's live feed.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/eventscan/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Events sent to viewers.
const (
	EventScanResult  = "scan_result"
	EventViewerCount = "viewer_count"
)

// Hub maintains event GID -> set of connections and broadcasts messages.
// With Redis configured, scan results go through pub/sub so every instance delivers them.
type Hub struct {
	rooms    map[string]map[string]*Client
	subs     map[string]func()
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher publishes feed events for other instances.
type RedisPublisher interface {
	PublishFeedEvent(eventGID, event string, payload []byte) error
}

// RedisSubscriber subscribes to an event's feed channel.
type RedisSubscriber interface {
	SubscribeFeed(eventGID string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to an event's feed. Subscribes to Redis for the first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.EventGID] == nil {
		h.rooms[c.EventGID] = make(map[string]*Client)
		if h.redisSub != nil {
			gid := c.EventGID
			cancel, err := h.redisSub.SubscribeFeed(gid, func(event string, payload []byte) {
				h.Broadcast(gid, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("feed subscribe failed", zap.String("event_gid", gid), zap.Error(err))
			} else {
				h.subs[gid] = cancel
			}
		}
	}
	h.rooms[c.EventGID][c.ID] = c
	count := len(h.rooms[c.EventGID])
	h.mu.Unlock()

	h.Broadcast(c.EventGID, EventViewerCount, map[string]int{"count": count})
	h.logger.Debug("viewer joined feed", zap.String("client_id", c.ID), zap.String("event_gid", c.EventGID))
}

// Unregister removes a client and closes its send channel. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	var count int
	if m, ok := h.rooms[c.EventGID]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		count = len(m)
		if count == 0 {
			delete(h.rooms, c.EventGID)
			if cancel, ok := h.subs[c.EventGID]; ok {
				cancel()
				delete(h.subs, c.EventGID)
			}
		}
	}
	h.mu.Unlock()

	if count > 0 {
		h.Broadcast(c.EventGID, EventViewerCount, map[string]int{"count": count})
	}
	h.logger.Debug("viewer left feed", zap.String("client_id", c.ID), zap.String("event_gid", c.EventGID))
}

// Broadcast sends a message to this instance's clients watching eventGID.
func (h *Hub) Broadcast(eventGID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Error("marshal feed payload failed", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[eventGID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// PublishScan delivers a scan result to every viewer of the event. With Redis the
// subscriber callback does the delivery, once per instance including this one.
func (h *Hub) PublishScan(eventGID string, scan models.Scan) {
	data, err := json.Marshal(scan)
	if err != nil {
		h.logger.Error("marshal scan failed", zap.Error(err))
		return
	}
	if h.redis != nil {
		err = h.redis.PublishFeedEvent(eventGID, EventScanResult, data)
		if err == nil {
			return
		}
		h.logger.Warn("feed publish failed, delivering locally", zap.String("event_gid", eventGID), zap.Error(err))
	}
	h.Broadcast(eventGID, EventScanResult, json.RawMessage(data))
}

// ViewerCount returns the number of clients on this instance watching eventGID.
func (h *Hub) ViewerCount(eventGID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventGID])
}
