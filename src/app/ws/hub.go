// Package ws is the real-time transport: one websocket per player, grouped
// into per-game rooms, carrying {type, data} frames in both directions.
package ws

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"pulljoker/src/core/projection"
)

// Hub tracks connected clients and the games each one is subscribed to.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]map[string]struct{}
	rooms   map[string]map[*Client]struct{}
	closed  bool
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*Client]map[string]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = make(map[string]struct{})
	return true
}

// unregister drops c from every room it joined.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for gameID := range h.clients[c] {
		h.leave(gameID, c)
	}
	delete(h.clients, c)
}

// Subscribe adds c to the audience of gameID.
func (h *Hub) Subscribe(gameID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	games, ok := h.clients[c]
	if !ok {
		return
	}
	games[gameID] = struct{}{}
	room, ok := h.rooms[gameID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[gameID] = room
	}
	room[c] = struct{}{}
}

// Unsubscribe removes c from the audience of gameID.
func (h *Hub) Unsubscribe(gameID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if games, ok := h.clients[c]; ok {
		delete(games, gameID)
	}
	h.leave(gameID, c)
}

func (h *Hub) leave(gameID string, c *Client) {
	room := h.rooms[gameID]
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
}

// RoomSize is the number of connections subscribed to gameID.
func (h *Hub) RoomSize(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}

// Deliver sends each envelope to the subscribers it addresses, in order.
// Each message is encoded once and shared between recipients.
func (h *Hub) Deliver(envs []projection.Envelope) {
	for _, env := range envs {
		raw, err := json.Marshal(env.Message)
		if err != nil {
			h.log.Error("encode message", "type", env.Message.Type, "game_id", env.GameID, "error", err)
			continue
		}
		for _, c := range h.audience(env) {
			c.enqueue(raw)
		}
	}
}

func (h *Hub) audience(env projection.Envelope) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Client
	for c := range h.rooms[env.GameID] {
		if env.Recipient != "" && c.playerID != env.Recipient {
			continue
		}
		if slices.Contains(env.Except, c.playerID) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.log.Info("websocket hub closed", "clients", len(clients))
}
