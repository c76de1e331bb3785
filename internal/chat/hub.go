package chat

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub maintains the set of live connections and their room
// subscriptions, and fans persisted messages out to everyone
// subscribed to a conversation.
type Hub struct {
	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Registered clients.
	clients map[*Client]bool

	// Room subscriptions keyed by conversation ID.
	rooms map[uint]map[*Client]bool

	// Mutex protecting clients and rooms.
	mu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      make(map[uint]map[*Client]bool),
	}
}

// Run processes register/unregister requests. Meant to run in its own
// goroutine for the lifetime of the server.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logrus.WithField("user_id", client.UserID).Info("Chat connection opened")
		case client := <-h.Unregister:
			h.remove(client)
		}
	}
}

// remove drops a client from the hub and from every room it joined,
// and closes its send channel.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for roomID, members := range h.rooms {
		if members[client] {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	close(client.Send)
	logrus.WithField("user_id", client.UserID).Info("Chat connection closed")
}

// Join subscribes a connection to a conversation's future messages.
// Membership authorization happens before this is called.
func (h *Hub) Join(client *Client, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	members, ok := h.rooms[conversationID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[conversationID] = members
	}
	members[client] = true
}

// Leave unsubscribes a connection from a conversation.
func (h *Hub) Leave(client *Client, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[conversationID]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, conversationID)
	}
}

// Broadcast delivers a payload to every connection subscribed to the
// conversation, including the sender's own. Delivery is at most once
// per connection; a client that cannot keep up is dropped.
func (h *Hub) Broadcast(conversationID uint, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.rooms[conversationID] {
		select {
		case client.Send <- payload:
		default:
			// Slow consumer, drop the connection
			delete(h.clients, client)
			for _, members := range h.rooms {
				delete(members, client)
			}
			close(client.Send)
		}
	}
}
