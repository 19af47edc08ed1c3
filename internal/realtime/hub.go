package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60

	// EventAttendees carries the attendee count of a webinar.
	EventAttendees = "attendees"
)

// AttendeeCount is the payload of an EventAttendees message.
type AttendeeCount struct {
	Count int  `json:"count"`
	Max   *int `json:"max"`
}

// Publisher sends a webinar's attendee count to every instance.
type Publisher interface {
	PublishAttendeeCount(webinarID uuid.UUID, count AttendeeCount) error
}

// Subscriber receives a webinar's attendee counts from every instance.
type Subscriber interface {
	SubscribeAttendeeCounts(webinarID uuid.UUID, handler func(AttendeeCount)) (cancel func(), err error)
}

// Hub maintains webinar id -> set of connections and fans out attendee counts. With Redis
// configured each instance subscribes to the channel of every webinar it has viewers for.
type Hub struct {
	webinars map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func()
	mu       sync.RWMutex
	logger   *zap.Logger
	pub      Publisher
	sub      Subscriber
}

// NewHub creates a hub. pub and sub may be nil for a single-instance deployment.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		webinars: make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		pub:      pub,
		sub:      sub,
	}
}

// Register adds a client to a webinar room. Starts the Redis subscription for the webinar if
// it is the first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.webinars[c.WebinarID] == nil {
		h.webinars[c.WebinarID] = make(map[string]*Client)
		if h.sub != nil {
			webinarID := c.WebinarID
			cancel, err := h.sub.SubscribeAttendeeCounts(webinarID, func(count AttendeeCount) {
				h.BroadcastToWebinar(webinarID, EventAttendees, count)
			})
			if err != nil {
				h.logger.Warn("webinar subscription failed", zap.Error(err), zap.String("webinar_id", webinarID.String()))
			} else {
				h.subs[webinarID] = cancel
			}
		}
	}
	h.webinars[c.WebinarID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("viewer connected", zap.String("client_id", c.ID), zap.String("webinar_id", c.WebinarID.String()))
}

// Unregister removes a client. The Redis subscription is cancelled when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.webinars[c.WebinarID]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.webinars, c.WebinarID)
			if cancel, ok := h.subs[c.WebinarID]; ok {
				cancel()
				delete(h.subs, c.WebinarID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("viewer disconnected", zap.String("client_id", c.ID), zap.String("webinar_id", c.WebinarID.String()))
}

// BroadcastToWebinar sends a message to the local clients of a webinar. Slow clients whose
// buffer is full miss the message.
func (h *Hub) BroadcastToWebinar(webinarID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.webinars[webinarID] {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// PublishAttendees announces a webinar's new attendee count. With Redis the subscriber callback
// does the broadcast on every instance, this one included; without it the broadcast is local.
func (h *Hub) PublishAttendees(webinarID uuid.UUID, count int, max *int) {
	payload := AttendeeCount{Count: count, Max: max}
	if h.pub != nil {
		if err := h.pub.PublishAttendeeCount(webinarID, payload); err != nil {
			h.logger.Warn("attendee count publish failed", zap.Error(err), zap.String("webinar_id", webinarID.String()))
			h.BroadcastToWebinar(webinarID, EventAttendees, payload)
		}
		return
	}
	h.BroadcastToWebinar(webinarID, EventAttendees, payload)
}

// ViewerCount returns the number of local connections watching a webinar.
func (h *Hub) ViewerCount(webinarID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.webinars[webinarID])
}

// TotalViewers returns the number of local connections across all webinars.
func (h *Hub) TotalViewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.webinars {
		n += len(conns)
	}
	return n
}

// Close cancels every Redis subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cancel := range h.subs {
		cancel()
		delete(h.subs, id)
	}
}
