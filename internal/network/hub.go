// Package network pushes simulation state to WebSocket clients and accepts
// purchase actions from them. It never touches business records: it reads
// the engine's published views and posts through the shop and mailbox.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/idleworks/tycoon/internal/engine"
	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/logger"
	"github.com/idleworks/tycoon/internal/platform/metrics"
	"github.com/idleworks/tycoon/internal/shop"
)

// Message types pushed to clients.
const (
	MessageEvent   = "event"
	MessageState   = "state"
	MessageReceipt = "receipt"
	MessageError   = "error"
)

// Message is the envelope of every frame sent to a client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StatePayload is the body of a "state" message.
type StatePayload struct {
	Tick       int64                 `json:"tick"`
	Money      int                   `json:"money"`
	Businesses []engine.BusinessView `json:"businesses"`
}

// StateSource is the read side of the engine the hub publishes.
type StateSource interface {
	GetViews() []engine.BusinessView
	Balance() int
	CurrentTick() int64
	GetEventLog() *events.EventLog
	GetMailbox() *events.Mailbox
}

// Buyer executes purchases on behalf of clients.
type Buyer interface {
	BuyLevel(businessID int) (shop.Receipt, error)
	BuyUpgrade(businessID, upgradeID int) (shop.Receipt, error)
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	logger     *logger.Logger

	state    StateSource
	buyer    Buyer
	upgrader websocket.Upgrader
}

// NewHub initializes a new WebSocket Hub.
func NewHub(state StateSource, buyer Buyer, log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     log,
		state:      state,
		buyer:      buyer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("websocket hub shutting down")
			h.mu.Lock()
			for client := range h.clients {
				h.closeClient(client)
			}
			h.mu.Unlock()
			metrics.WSConnections.Set(0)
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.WSConnections.Inc()
			h.logger.Info("websocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.closeClient(client)
				metrics.WSConnections.Dec()
				h.logger.Info("websocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.WSMessages.WithLabelValues("out").Inc()
				default:
					// Slow consumer
					h.closeClient(client)
					metrics.WSConnections.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// closeClient removes c and closes its send channel. Caller holds h.mu.
func (h *Hub) closeClient(c *Client) {
	delete(h.clients, c)
	c.closed = true
	close(c.send)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast serializes msg and queues it for every client.
func (h *Hub) Broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to serialize websocket message", "type", msg.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

// ServeHTTP upgrades the request and starts the client pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h, conn)
	client.Register()
	client.sendMessage(Message{Type: MessageState, Data: h.snapshot()})

	go client.WritePump()
	go client.ReadPump()
}

// StartPublisher spawns a goroutine that polls the journal and the views
// and pushes what changed to the Hub. It runs independently from the
// engine loop and picks up the same events.
func (h *Hub) StartPublisher(ctx context.Context, interval time.Duration) {
	go func() {
		poll := time.NewTicker(interval)
		defer poll.Stop()

		eventLog := h.state.GetEventLog()
		lastProcessedEvent := eventLog.Len()
		lastTick := int64(-1)

		for {
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
				newEvents := eventLog.Since(lastProcessedEvent)
				for _, event := range newEvents {
					h.Broadcast(Message{Type: MessageEvent, Data: event})
				}
				lastProcessedEvent += len(newEvents)

				if tick := h.state.CurrentTick(); tick != lastTick {
					h.Broadcast(Message{Type: MessageState, Data: h.snapshot()})
					lastTick = tick
				}
			}
		}
	}()
}

func (h *Hub) snapshot() StatePayload {
	return StatePayload{
		Tick:       h.state.CurrentTick(),
		Money:      h.state.Balance(),
		Businesses: h.state.GetViews(),
	}
}
