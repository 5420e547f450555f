package websocket

import (
	"encoding/json"
	"sync"

	"github.com/dennisdiepolder/dropboard/internal/metrics"
	"github.com/dennisdiepolder/dropboard/internal/types"
	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Notices queued for broadcast
	broadcast chan types.RefreshNotice

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect clients map
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan types.RefreshNotice, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWebSocketConnect()
			h.logger.Info().
				Str("client_id", client.id).
				Int("total_clients", len(h.clients)).
				Msg("client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWebSocketDisconnect()
				h.logger.Info().
					Str("client_id", client.id).
					Int("total_clients", len(h.clients)).
					Msg("client disconnected")
			}
			h.mu.Unlock()

		case notice := <-h.broadcast:
			h.broadcastNotice(notice)
		}
	}
}

// BroadcastNotice sends a refresh notice to every client, filtered to what
// each client may see
func (h *Hub) BroadcastNotice(notice types.RefreshNotice) {
	h.broadcast <- notice
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastNotice(notice types.RefreshNotice) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		data, err := json.Marshal(client.FilterNotice(notice))
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to marshal refresh notice")
			continue
		}
		h.deliver(client, data)
	}
}

// deliver must be called with mu held for writing
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
		metrics.Get().RecordWebSocketMessage()
	default:
		// Client's send buffer is full, close and remove it
		close(client.send)
		delete(h.clients, client)
		metrics.Get().RecordWebSocketError()
		h.logger.Warn().
			Str("client_id", client.id).
			Msg("client send buffer full, closing connection")
	}
}
