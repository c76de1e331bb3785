package chat

import (
	"encoding/json"
	"errors"
	"thrift_market/internal/market"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// User ID from the JWT presented at the handshake.
	UserID uint

	// Database handle for message persistence and membership checks.
	DB *gorm.DB
}

// Event is the envelope for everything that crosses the websocket.
// Clients send join_room, leave_room and send_message; the server
// sends receive_message and error.
type Event struct {
	Type           string          `json:"type"`
	ConversationID uint            `json:"conversation_id,omitempty"`
	Content        string          `json:"content,omitempty"`
	Message        json.RawMessage `json:"message,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// ReadPump pumps events from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("user_id", c.UserID).Warnf("websocket read error: %v", err)
			}
			break
		}
		c.handleEvent(raw)
	}
}

// WritePump pumps events from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleEvent(raw []byte) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.sendError("malformed event")
		return
	}
	switch ev.Type {
	case "join_room":
		// Only the conversation's buyer or seller may subscribe
		if err := market.CanJoinConversation(c.DB, ev.ConversationID, c.UserID); err != nil {
			c.sendError(errorText(err))
			return
		}
		c.Hub.Join(c, ev.ConversationID)
		logrus.WithFields(logrus.Fields{
			"user_id":         c.UserID,
			"conversation_id": ev.ConversationID,
		}).Info("Joined conversation")
	case "leave_room":
		c.Hub.Leave(c, ev.ConversationID)
	case "send_message":
		msg, err := market.SaveMessage(c.DB, ev.ConversationID, c.UserID, ev.Content)
		if err != nil {
			c.sendError(errorText(err))
			return
		}
		// Broadcast the persisted row, server-assigned ID and timestamp
		// included, to every subscriber of the room. The sender's own
		// connection receives it too so the client can reconcile its
		// optimistic local copy with the stored record.
		body, _ := json.Marshal(msg)
		payload, _ := json.Marshal(Event{
			Type:           "receive_message",
			ConversationID: ev.ConversationID,
			Message:        body,
		})
		c.Hub.Broadcast(ev.ConversationID, payload)
	default:
		c.sendError("unknown event type")
	}
}

// sendError reports a failure back to this connection only.
func (c *Client) sendError(text string) {
	payload, _ := json.Marshal(Event{Type: "error", Error: text})
	select {
	case c.Send <- payload:
	default:
	}
}

// errorText strips the business-layer error down to a user-facing
// string.
func errorText(err error) string {
	switch {
	case errors.Is(err, market.ErrNotFound):
		return "conversation not found"
	case errors.Is(err, market.ErrForbidden):
		return "not a participant of this conversation"
	case errors.Is(err, market.ErrValidation):
		return "invalid message"
	default:
		return "failed to send message"
	}
}
