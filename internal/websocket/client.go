package websocket

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only receive events; anything they send is discarded.
	maxMessageSize = 512

	// SendBufferSize is the per-client outbound queue length.
	SendBufferSize = 256
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The user ID this client represents.
	UserID primitive.ObjectID

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte
}

func NewClient(hub *Hub, userID primitive.ObjectID, conn *websocket.Conn) *Client {
	return &Client{
		Hub:    hub,
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, SendBufferSize),
	}
}

// enqueue drops the message when the client is not keeping up.
func (c *Client) enqueue(message []byte) {
	select {
	case c.Send <- message:
	default:
		slog.Warn("websocket send buffer full, dropping event", "user", c.UserID.Hex())
	}
}

// ReadPump keeps the connection alive and detects when the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Detach(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read error", "user", c.UserID.Hex(), "error", err)
			}
			break
		}
	}
}

// WritePump delivers queued events, one JSON document per text frame, and
// keeps the peer alive with pings. It owns all writes to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case event, ok := <-c.Send:
			if !ok {
				// Hub shut down or dropped this client.
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, event); err != nil {
				slog.Debug("websocket write error", "user", c.UserID.Hex(), "error", err)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				slog.Debug("websocket ping failed", "user", c.UserID.Hex(), "error", err)
				return
			}
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, payload)
}
