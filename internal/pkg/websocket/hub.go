package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/pkg/metrics"
)

// Event names pushed to clients.
const (
	EventNewNotification = "newNotification"
	EventPostCreated     = "postCreated"
	EventPostUpdated     = "postUpdated"
	EventPostDeleted     = "postDeleted"
	EventPostReacted     = "postReacted"
	EventCommentReacted  = "commentReacted"
	EventReplyReacted    = "replyReacted"
)

// Frame is the JSON document written for every event.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type outbound struct {
	// zero means every connected client
	userID  int64
	event   string
	payload []byte
}

// Hub keeps one room per user. A user may hold several connections and
// every connection in the room receives the user's events.
type Hub struct {
	// Registered clients organized by user ID
	rooms map[int64]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	outbound   chan outbound
	done       chan struct{}

	mu      sync.RWMutex
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan outbound, 1024),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
	}
}

// Run dispatches registrations and events until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.userID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.userID] = room
			}
			room[client] = true
			h.mu.Unlock()
			h.metrics.ClientConnected(1)
			h.logger.Debug().Int64("userID", client.userID).Int("connections", len(room)).Msg("Client joined room")

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.outbound:
			h.deliver(msg)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.userID]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.userID)
	}
	h.metrics.ClientConnected(-1)
}

func (h *Hub) deliver(msg outbound) {
	h.mu.RLock()
	var targets []*Client
	if msg.userID == 0 {
		for _, room := range h.rooms {
			for c := range room {
				targets = append(targets, c)
			}
		}
	} else {
		for c := range h.rooms[msg.userID] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- msg.payload:
		default:
			// Slow consumer, drop the connection rather than block the hub.
			h.logger.Warn().Int64("userID", c.userID).Str("event", msg.event).Msg("Client send buffer full, disconnecting")
			h.remove(c)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, room := range h.rooms {
		for c := range room {
			close(c.send)
			h.metrics.ClientConnected(-1)
		}
		delete(h.rooms, userID)
	}
}

func (h *Hub) enqueue(userID int64, event string, data interface{}) {
	payload, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Failed to encode realtime frame")
		return
	}

	select {
	case h.outbound <- outbound{userID: userID, event: event, payload: payload}:
		h.metrics.EventPushed(event)
	default:
		h.logger.Warn().Int64("userID", userID).Str("event", event).Msg("Realtime queue full, event dropped")
	}
}

// join and leave give up once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendToUser pushes an event to every connection of userID. Delivery is
// best effort and never blocks the caller.
func (h *Hub) SendToUser(userID int64, event string, data interface{}) {
	if userID <= 0 {
		return
	}
	h.enqueue(userID, event, data)
}

// Broadcast pushes an event to every connected client.
func (h *Hub) Broadcast(event string, data interface{}) {
	h.enqueue(0, event, data)
}

// Connections reports how many live connections userID holds.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}
