package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// Minimum spacing between two actions of one client.
	minActionInterval = 50 * time.Millisecond
)

// Action types accepted from clients.
const (
	ActionLevelUp    = "LEVEL_UP"
	ActionBuyUpgrade = "BUY_UPGRADE"
	ActionSave       = "SAVE"
)

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type       string `json:"type"`
	BusinessID int    `json:"business_id"`
	UpgradeID  int    `json:"upgrade_id"`
}

// ErrorPayload is the body of an "error" message.
type ErrorPayload struct {
	Action string `json:"action"`
	Error  string `json:"error"`
}

// Client is one WebSocket connection.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	closed         bool // Guarded by hub.mu
	lastActionTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
	}
}

// ReadPump pumps actions from the websocket connection to the shop.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", "error", err)
			}
			break
		}
		metrics.WSMessages.WithLabelValues("in").Inc()

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Debug("failed to parse player action", "error", err)
			c.sendMessage(Message{Type: MessageError, Data: ErrorPayload{Error: "malformed action"}})
			continue
		}

		c.handlePlayerAction(action)
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	if time.Since(c.lastActionTime) < minActionInterval {
		c.sendMessage(Message{Type: MessageError, Data: ErrorPayload{Action: action.Type, Error: "rate limited"}})
		return
	}
	c.lastActionTime = time.Now()

	switch action.Type {
	case ActionLevelUp:
		receipt, err := c.hub.buyer.BuyLevel(action.BusinessID)
		c.reply(action.Type, receipt, err)
	case ActionBuyUpgrade:
		receipt, err := c.hub.buyer.BuyUpgrade(action.BusinessID, action.UpgradeID)
		c.reply(action.Type, receipt, err)
	case ActionSave:
		c.hub.state.GetMailbox().PostSave(events.SaveRequest{})
		c.sendMessage(Message{Type: MessageReceipt, Data: map[string]string{"action": ActionSave, "status": "queued"}})
	default:
		c.hub.logger.Debug("unknown player action", "type", action.Type)
		c.sendMessage(Message{Type: MessageError, Data: ErrorPayload{Action: action.Type, Error: "unknown action"}})
	}
}

func (c *Client) reply(action string, receipt interface{}, err error) {
	if err != nil {
		c.sendMessage(Message{Type: MessageError, Data: ErrorPayload{Action: action, Error: err.Error()}})
		return
	}
	c.sendMessage(Message{Type: MessageReceipt, Data: receipt})
}

// sendMessage queues a frame for this client only. Drops when the buffer
// is full or the hub has already closed the client.
func (c *Client) sendMessage(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
		metrics.WSMessages.WithLabelValues("out").Inc()
	default:
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
