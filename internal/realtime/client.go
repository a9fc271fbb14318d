package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agrilink/negotiation-service/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

const (
	ActionJoin  = "join"
	ActionLeave = "leave"
)

// Frame is a control message sent by a connected client.
type Frame struct {
	Action string `json:"action"`
	ChatID string `json:"chat_id"`
	Token  string `json:"token,omitempty"`
}

type SubscribeTokenValidator interface {
	ValidateSubscribeToken(tokenString string) (*model.RoomClaims, error)
}

// Client is one WebSocket connection. rooms is owned by the hub goroutine.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	tokens SubscribeTokenValidator
	rooms  map[string]struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, tokens SubscribeTokenValidator) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		tokens: tokens,
		rooms:  make(map[string]struct{}),
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn(fmt.Sprintf("websocket of user %s closed: %v", c.userID, err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.hub.replyTo(c, model.NewErrorEvent("", "malformed frame"))
			continue
		}
		c.handle(frame)
	}
}

func (c *Client) handle(frame Frame) {
	switch frame.Action {
	case ActionJoin:
		if err := c.authorize(frame); err != nil {
			c.hub.logger.Warn(fmt.Sprintf("join of %s by user %s refused: %v", frame.ChatID, c.userID, err))
			c.hub.replyTo(c, model.NewErrorEvent(frame.ChatID, "join refused"))
			return
		}
		c.hub.Join(c, model.NegotiationChannel(frame.ChatID))
	case ActionLeave:
		c.hub.Leave(c, model.NegotiationChannel(frame.ChatID))
	default:
		c.hub.replyTo(c, model.NewErrorEvent(frame.ChatID, fmt.Sprintf("unknown action %q", frame.Action)))
	}
}

// authorize checks that the subscribe token was issued to this user for this room.
func (c *Client) authorize(frame Frame) error {
	if frame.ChatID == "" {
		return fmt.Errorf("chat_id is required")
	}

	claims, err := c.tokens.ValidateSubscribeToken(frame.Token)
	if err != nil {
		return err
	}

	if claims.UserID != c.userID || claims.NegotiationID != frame.ChatID {
		return fmt.Errorf("token does not grant %s", frame.ChatID)
	}

	return nil
}

// WritePump writes one event per WebSocket frame and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
