package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisChannel = "hamro:notifications"

// EventHandler processes an event sent by a connected client
type EventHandler func(userID uuid.UUID, event model.WSEvent)

// Hub manages all WebSocket connections and event delivery.
// Events are relayed through Redis Pub/Sub so every instance can reach its own
// connections. With a nil Redis client delivery stays local.
type Hub struct {
	// userID -> set of connections (one user can have several tabs/devices)
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	rdb *redis.Client

	onClientEvent EventHandler
}

// NewHub creates a new WebSocket Hub
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
	}
}

// OnClientEvent sets the handler for events read from client connections
func (h *Hub) OnClientEvent(handler EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClientEvent = handler
}

func (h *Hub) handleClientEvent(userID uuid.UUID, event model.WSEvent) {
	h.mu.RLock()
	handler := h.onClientEvent
	h.mu.RUnlock()
	if handler != nil {
		handler(userID, event)
	}
}

// Run starts the Hub's main event loop
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register queues a client for registration with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true
	log.Info().
		Str("user_id", client.UserID.String()).
		Int("connections", len(h.clients[client.UserID])).
		Msg("✅ Client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
	log.Info().Str("user_id", client.UserID.String()).Msg("❌ Client disconnected")
}

// dropLocked removes a client and closes its send channel; callers hold mu
func (h *Hub) dropLocked(client *Client) {
	clients, ok := h.clients[client.UserID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.UserID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.dropLocked(client)
		}
	}
}

// SendToUser delivers an event to every connection of a user, on any instance
func (h *Hub) SendToUser(userID uuid.UUID, event *model.WSEvent) {
	h.publish(&TargetedEvent{TargetUserID: userID, Event: event})
}

// Broadcast delivers an event to every connected user
func (h *Hub) Broadcast(event *model.WSEvent) {
	h.publish(&TargetedEvent{Event: event})
}

// deliverLocal writes an event to local connections. A nil target means all.
// Connections whose buffer is full are dropped.
func (h *Hub) deliverLocal(target uuid.UUID, event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling event")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for userID, clients := range h.clients {
		if target != uuid.Nil && userID != target {
			continue
		}
		for client := range clients {
			select {
			case client.send <- data:
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, client := range slow {
		h.dropLocked(client)
	}
	h.mu.Unlock()
}

// IsUserOnline checks if a user has any active connections on this instance
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// ========== Redis Pub/Sub for Horizontal Scaling ==========

// TargetedEvent wraps an event with its recipient; a nil target is a broadcast
type TargetedEvent struct {
	TargetUserID uuid.UUID      `json:"target_user_id,omitempty"`
	Event        *model.WSEvent `json:"event"`
}

func (h *Hub) publish(te *TargetedEvent) {
	if h.rdb == nil {
		h.deliverLocal(te.TargetUserID, te.Event)
		return
	}

	data, err := json.Marshal(te)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling for Redis")
		return
	}
	if err := h.rdb.Publish(context.Background(), redisChannel, data).Err(); err != nil {
		log.Error().Err(err).Msg("Error publishing to Redis, delivering locally")
		h.deliverLocal(te.TargetUserID, te.Event)
	}
}

// subscribeRedis delivers events published by any instance to local clients
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Info().Str("channel", redisChannel).Msg("📡 Redis Pub/Sub subscriber started")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var te TargetedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &te); err != nil {
				log.Error().Err(err).Msg("Error unmarshaling Redis message")
				continue
			}
			if te.Event != nil {
				h.deliverLocal(te.TargetUserID, te.Event)
			}
		}
	}
}
