package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"before-after/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// queueTimeout bounds how long a publisher waits for the hub loop.
const queueTimeout = time.Second

// MessageToSend is a payload addressed to every connection of one user.
type MessageToSend struct {
	TargetUserID primitive.ObjectID
	Payload      []byte
}

// Hub maintains the set of active clients and fans post events out to them.
type Hub struct {
	// Registered clients. Maps user ID to a set of active client connections.
	Clients map[primitive.ObjectID]map[*Client]bool

	// Payloads for every connected client.
	Broadcast chan []byte

	// Payloads for the connections of a single user.
	SendDirect chan *MessageToSend

	Register   chan *Client
	Unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		SendDirect: make(chan *MessageToSend),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[primitive.ObjectID]map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Run processes hub traffic until ctx is cancelled, then closes every
// client's send channel.
func (h *Hub) Run(ctx context.Context) {
	slog.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			slog.Info("websocket hub stopped")
			return

		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; !ok {
				h.Clients[client.UserID] = make(map[*Client]bool)
			}
			h.Clients[client.UserID][client] = true
			slog.Debug("websocket client registered", "user", client.UserID.Hex(), "connections", len(h.Clients[client.UserID]))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.Clients[client.UserID]; ok {
				if _, clientOk := userClients[client]; clientOk {
					delete(userClients, client)
					close(client.Send)
					if len(userClients) == 0 {
						delete(h.Clients, client.UserID)
					}
					slog.Debug("websocket client unregistered", "user", client.UserID.Hex(), "remaining", len(userClients))
				}
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.RLock()
			for _, userClients := range h.Clients {
				for client := range userClients {
					client.enqueue(message)
				}
			}
			h.mu.RUnlock()

		case directMessage := <-h.SendDirect:
			h.mu.RLock()
			for client := range h.Clients[directMessage.TargetUserID] {
				client.enqueue(directMessage.Payload)
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, userClients := range h.Clients {
		for client := range userClients {
			close(client.Send)
		}
		delete(h.Clients, userID)
	}
}

// Attach registers client unless the hub has stopped.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Detach unregisters client; it is a no-op once the hub has stopped.
func (h *Hub) Detach(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// ConnectionCount returns the number of open client connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, userClients := range h.Clients {
		n += len(userClients)
	}
	return n
}

// SendDirectMessage queues payload for every connection of targetUserID.
func (h *Hub) SendDirectMessage(targetUserID primitive.ObjectID, payload []byte) {
	message := &MessageToSend{
		TargetUserID: targetUserID,
		Payload:      payload,
	}
	select {
	case h.SendDirect <- message:
	case <-h.done:
	case <-time.After(queueTimeout):
		slog.Warn("timeout queuing direct message", "user", targetUserID.Hex())
	}
}

// BroadcastMessage queues payload for every connected client.
func (h *Hub) BroadcastMessage(payload []byte) {
	select {
	case h.Broadcast <- payload:
	case <-h.done:
	case <-time.After(queueTimeout):
		slog.Warn("timeout queuing broadcast")
	}
}

// PublishPostEvent delivers a post change: public posts go to everyone,
// private posts only to their owner.
func (h *Hub) PublishPostEvent(event models.PostEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("encoding post event", "post", event.PostID.Hex(), "error", err)
		return
	}
	if event.Private {
		h.SendDirectMessage(event.Owner, payload)
		return
	}
	h.BroadcastMessage(payload)
}
