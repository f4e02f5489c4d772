// Package hub tracks websocket clients on this instance and the rooms they
// joined. Frames reach it through a Fanout.
package hub

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/observability"
)

// ErrRoomForbidden is returned when a client joins a room it may not read.
var ErrRoomForbidden = errors.New("hub: room not permitted")

const sendBuffer = 64

// Client is one websocket connection. Frames are queued on Send and written
// by the connection's writer.
type Client struct {
	ID       string
	Identity domain.Identity
	send     chan []byte
	rooms    map[string]struct{}
	closed   bool
}

// Send yields queued frames; it is closed on unregister.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Hub maps rooms to clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	logger  *zap.Logger
}

// New creates an empty hub.
func New(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		logger:  observability.OrNop(logger).Named("hub"),
	}
}

// Register adds a client for identity.
func (h *Hub) Register(identity domain.Identity) *Client {
	c := &Client{
		ID:       uuid.NewString(),
		Identity: identity,
		send:     make(chan []byte, sendBuffer),
		rooms:    make(map[string]struct{}),
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	return c
}

// Unregister removes c from every room and closes its queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	for room := range c.rooms {
		if members := h.rooms[room]; members != nil {
			delete(members, c.ID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.clients, c.ID)
	close(c.send)
}

// Join subscribes c to room. A client may join its own room, and staff may
// also join the shared staff room.
func (h *Hub) Join(c *Client, room string) error {
	allowed := room == c.Identity.Room() ||
		(room == domain.StaffRoom && c.Identity.Role.IsStaff())
	if !allowed {
		return ErrRoomForbidden
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return nil
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[c.ID] = c
	c.rooms[room] = struct{}{}
	return nil
}

// Deliver queues frame for every client in room. Clients whose queue is
// full are disconnected.
func (h *Hub) Deliver(room string, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.rooms[room] {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("dropping slow websocket client",
				zap.String("client_id", c.ID),
				zap.String("user_id", c.Identity.UserID.String()))
			h.dropLocked(c)
		}
	}
}

// Members returns the number of clients in room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
