package network

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idleworks/tycoon/internal/domain/business"
	"github.com/idleworks/tycoon/internal/engine"
	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/ledger"
	"github.com/idleworks/tycoon/internal/platform/identifier"
	"github.com/idleworks/tycoon/internal/platform/logger"
	"github.com/idleworks/tycoon/internal/shop"
)

const hero = 1

type rawMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*engine.Engine, *ledger.Wallet, *websocket.Conn) {
	t.Helper()

	data := []business.Data{
		{Name: "Stand", IncomeDelay: 1, BaseCost: 10, BaseIncome: 5},
		{Name: "Shop", IncomeDelay: 2, BaseCost: 50, BaseIncome: 20},
	}
	names := []business.NameData{{Name: "Stand"}, {Name: "Shop"}}
	reg, err := engine.NewRegistry(data, names, identifier.NewSequence(hero), hero)
	require.NoError(t, err)

	log := logger.Discard()
	wallet := ledger.NewWallet()
	eng := engine.NewEngine(reg, hero, wallet, nil, events.NewEventLog(nil), log)
	hub := NewHub(eng, shop.NewShop(eng, eng.GetMailbox(), wallet, log), log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	hub.StartPublisher(ctx, 10*time.Millisecond)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return eng, wallet, conn
}

// readUntil reads frames until a message of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) rawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	for {
		_, frame, err := conn.ReadMessage()
		require.NoError(t, err)
		// Queued messages share a frame, one per line
		for _, line := range bytes.Split(frame, []byte{'\n'}) {
			var msg rawMessage
			require.NoError(t, json.Unmarshal(line, &msg))
			if msg.Type == want {
				return msg
			}
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, action PlayerAction) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(action))
	// Stay clear of the per-client rate limit
	time.Sleep(2 * minActionInterval)
}

func TestInitialStateOnConnect(t *testing.T) {
	_, _, conn := newTestServer(t)

	msg := readUntil(t, conn, MessageState)
	var state StatePayload
	require.NoError(t, json.Unmarshal(msg.Data, &state))
	require.Len(t, state.Businesses, 2)
	assert.Equal(t, 1, state.Businesses[0].Level)
	assert.Equal(t, 0, state.Money)
}

func TestLevelUpActionWithoutFunds(t *testing.T) {
	_, _, conn := newTestServer(t)
	readUntil(t, conn, MessageState)

	send(t, conn, PlayerAction{Type: ActionLevelUp, BusinessID: 1})

	msg := readUntil(t, conn, MessageError)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, ActionLevelUp, payload.Action)
	assert.Contains(t, payload.Error, "insufficient funds")
}

func TestLevelUpActionIsAppliedAndBroadcast(t *testing.T) {
	eng, wallet, conn := newTestServer(t)
	readUntil(t, conn, MessageState)
	wallet.SetBalance(hero, 100)

	send(t, conn, PlayerAction{Type: ActionLevelUp, BusinessID: 1})

	msg := readUntil(t, conn, MessageReceipt)
	var receipt shop.Receipt
	require.NoError(t, json.Unmarshal(msg.Data, &receipt))
	assert.Equal(t, 50, receipt.Price)
	assert.Equal(t, 50, receipt.Balance)

	eng.Tick(context.Background(), 0)

	ev := readUntil(t, conn, MessageEvent)
	var event events.GameEvent
	require.NoError(t, json.Unmarshal(ev.Data, &event))
	assert.Equal(t, events.EventTypeLevelUp, event.Type)
	assert.Equal(t, 1, event.BusinessID)

	v, ok := eng.GetView(1)
	require.True(t, ok)
	assert.True(t, v.Purchased)
}

func TestUnknownAction(t *testing.T) {
	_, _, conn := newTestServer(t)
	readUntil(t, conn, MessageState)

	send(t, conn, PlayerAction{Type: "DANCE"})

	msg := readUntil(t, conn, MessageError)
	assert.Contains(t, string(msg.Data), "unknown action")
}

func TestSaveActionQueuesRequest(t *testing.T) {
	eng, _, conn := newTestServer(t)
	readUntil(t, conn, MessageState)

	send(t, conn, PlayerAction{Type: ActionSave})
	readUntil(t, conn, MessageReceipt)

	assert.True(t, eng.GetMailbox().Drain().Save)
}

func TestSendAfterHubShutdownIsDropped(t *testing.T) {
	hub := NewHub(nil, nil, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	c := NewClient(hub, nil)
	c.Register()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c.sendMessage(Message{Type: MessageState})
		}
	}()

	cancel()
	<-hub.done
	wg.Wait()

	assert.NotPanics(t, func() { c.sendMessage(Message{Type: MessageError}) })
	hub.mu.Lock()
	defer hub.mu.Unlock()
	assert.True(t, c.closed)
	assert.Empty(t, hub.clients)
}
