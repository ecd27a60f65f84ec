package bitmex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"warrior_go/internal/event"
	"warrior_go/internal/infra"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *collector) Publish(ev event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *collector) types() []event.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.Type, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.GetType())
	}
	return out
}

func newFeedServer(t *testing.T, requests chan<- wsRequest) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"info":"Welcome","version":"2.0.0"}`))

		for i := 0; i < 2; i++ {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req wsRequest
			if json.Unmarshal(msg, &req) == nil {
				requests <- req
			}
		}

		_ = conn.WriteMessage(websocket.TextMessage, []byte(bookFrame))

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(msg) == "ping" {
				_ = conn.WriteMessage(websocket.TextMessage, []byte("pong"))
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedWorker_AuthSubscribeAndPublish(t *testing.T) {
	requests := make(chan wsRequest, 4)
	srv := newFeedServer(t, requests)

	cfg := testConfig("", "ws"+strings.TrimPrefix(srv.URL, "http"))
	cfg.API.Bitmex.Subscriptions = []string{"orderBook10:XBTUSD", "order"}

	out := &collector{}
	m := infra.NewMetrics()
	w := NewFeedWorker(cfg, out, m)
	require.NoError(t, w.Connect(context.Background()))
	defer w.Disconnect()

	auth := <-requests
	assert.Equal(t, "authKeyExpires", auth.Op)
	require.Len(t, auth.Args, 3)
	assert.Equal(t, "key", auth.Args[0])

	sub := <-requests
	assert.Equal(t, "subscribe", sub.Op)
	assert.Equal(t, []any{"orderBook10:XBTUSD", "order"}, sub.Args)

	require.Eventually(t, func() bool {
		return len(out.types()) >= 3
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []event.Type{event.EvStatusNote, event.EvNewAsk, event.EvNewBid}, out.types()[:3])
	assert.True(t, w.IsConnected())
	assert.Equal(t, int32(1), m.Snapshot().ActiveConnections)
}

func TestFeedWorker_DisconnectStops(t *testing.T) {
	requests := make(chan wsRequest, 4)
	srv := newFeedServer(t, requests)

	cfg := testConfig("", "ws"+strings.TrimPrefix(srv.URL, "http"))
	cfg.API.Bitmex.APIKey = ""
	cfg.API.Bitmex.Subscriptions = []string{"orderBook10:XBTUSD"}

	w := NewFeedWorker(cfg, &collector{}, nil)
	require.NoError(t, w.Connect(context.Background()))

	sub := <-requests
	assert.Equal(t, "subscribe", sub.Op, "no auth without credentials")

	done := make(chan struct{})
	go func() {
		w.Disconnect()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Disconnect did not return")
	}
	assert.False(t, w.IsConnected())
}

func TestFeedWorker_ConnectFailureReportsStatus(t *testing.T) {
	cfg := testConfig("", "ws://127.0.0.1:1/realtime")
	out := &collector{}
	m := infra.NewMetrics()
	w := NewFeedWorker(cfg, out, m)

	require.NoError(t, w.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return len(out.types()) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	w.Disconnect()

	note, ok := out.events[0].(*event.StatusNote)
	require.True(t, ok)
	assert.Contains(t, note.Text, "Feed connection failed")
	assert.GreaterOrEqual(t, m.Snapshot().FeedReconnects, uint64(1))
}

func TestNewFeedWorker_PublicOnlyWithoutCredentials(t *testing.T) {
	cfg := testConfig("", "ws://example.invalid")
	cfg.API.Bitmex.Subscriptions = []string{"orderBook10:XBTUSD", "order", "execution:XBTUSD"}

	w := NewFeedWorker(cfg, &collector{}, nil)
	assert.Equal(t, cfg.API.Bitmex.Subscriptions, w.subscriptions)

	cfg.API.Bitmex.APIKey = ""
	cfg.API.Bitmex.APISecret = ""
	w = NewFeedWorker(cfg, &collector{}, nil)
	assert.Equal(t, []string{"orderBook10:XBTUSD"}, w.subscriptions)
}

func TestFeedWorker_UnauthorizedStopsRetrying(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"error":{"message":"Invalid API Key.","name":"HTTPError"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testConfig("", "ws"+strings.TrimPrefix(srv.URL, "http"))
	out := &collector{}
	w := NewFeedWorker(cfg, out, nil)
	require.NoError(t, w.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return len(out.types()) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	w.Disconnect()

	note, ok := out.events[0].(*event.StatusNote)
	require.True(t, ok)
	assert.Contains(t, note.Text, "Feed stopped")
	assert.Equal(t, int32(1), hits.Load())
}
