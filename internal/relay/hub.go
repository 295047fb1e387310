package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/elimu-cbe/cbe-platform/internal/models"
)

// Message is the envelope pushed to subscribers
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans notification messages out to connected websocket clients.
// Delivery is at-most-once and process-local: the online map lives in this
// process only, and a slow client loses messages instead of stalling the hub.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // keyed by user ID, one connection per user

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	logger *slog.Logger
	done   chan struct{}
	once   sync.Once
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run processes registrations until the context is cancelled or Stop is
// called. Start it once, in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// A reconnect replaces the previous connection
			if prev, ok := h.clients[client.UserID]; ok {
				close(prev.Send)
			}
			h.clients[client.UserID] = client
			h.mu.Unlock()
			h.logger.Debug("relay client connected",
				"user_id", client.UserID,
				"role", client.Role)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
				close(client.Send)
			}
			h.mu.Unlock()
			h.logger.Debug("relay client disconnected", "user_id", client.UserID)

		case payload := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- payload:
				default:
					// Buffer full: drop for this client
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.Stop()
			return
		case <-h.done:
			return
		}
	}
}

// Stop closes every connection and clears the online map
func (h *Hub) Stop() {
	h.once.Do(func() {
		close(h.done)

		h.mu.Lock()
		closed := len(h.clients)
		for userID, client := range h.clients {
			close(client.Send)
			delete(h.clients, userID)
		}
		h.mu.Unlock()

		h.logger.Info("relay hub stopped", "closed_connections", closed)
	})
}

// NotifyUser pushes one message to one user if they are online. Offline
// users miss the message; durable delivery belongs to the event bus.
func (h *Hub) NotifyUser(userID string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal relay message", "error", err, "type", msg.Type)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[userID]; ok {
		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("relay buffer full, dropping message",
				"user_id", userID,
				"type", msg.Type)
		}
	}
}

// NotifyUsers pushes one message to each listed user
func (h *Hub) NotifyUsers(userIDs []string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal relay message", "error", err, "type", msg.Type)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range userIDs {
		if client, ok := h.clients[id]; ok {
			select {
			case client.Send <- payload:
			default:
			}
		}
	}
}

// NotifyRole pushes one message to every online user holding the role
func (h *Hub) NotifyRole(role models.UserRole, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal relay message", "error", err, "type", msg.Type)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.Role != role {
			continue
		}
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// Broadcast pushes one message to every online user
func (h *Hub) Broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal relay message", "error", err, "type", msg.Type)
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

// IsUserOnline reports whether the user has a live connection in this process
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// OnlineUsers returns the IDs of currently connected users
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}
