package bitmex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"warrior_go/internal/domain"
	"warrior_go/internal/event"
	"warrior_go/internal/infra"

	"github.com/gorilla/websocket"
)

// Publisher accepts decoded feed events.
type Publisher interface {
	Publish(ev event.Event) error
}

// FeedWorker keeps the BitMEX realtime connection alive and publishes what it receives.
// It implements domain.ExchangeWorker.
type FeedWorker struct {
	url           string
	subscriptions []string
	signer        *Signer
	out           Publisher
	metrics       *infra.Metrics

	conn       *websocket.Conn
	connCancel context.CancelFunc
	mu         sync.RWMutex
	writeMu    sync.Mutex
	connected  bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	logger *slog.Logger
}

var _ domain.ExchangeWorker = (*FeedWorker)(nil)

// NewFeedWorker creates a worker from config. metrics may be nil.
// Without credentials only public tables are subscribed.
func NewFeedWorker(cfg *infra.Config, out Publisher, metrics *infra.Metrics) *FeedWorker {
	b := cfg.API.Bitmex
	signer := NewSigner(b.APIKey, b.APISecret, cfg.SignatureTTL())
	subs := b.Subscriptions
	if !signer.HasCredentials() {
		subs = publicSubscriptions(subs)
	}
	return &FeedWorker{
		url:           b.WSURL,
		subscriptions: subs,
		signer:        signer,
		out:           out,
		metrics:       metrics,
		logger:        slog.Default().With("module", "bitmex_feed"),
	}
}

// Connect starts the connection loop in the background and returns immediately.
func (w *FeedWorker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

// IsConnected reports whether a websocket is currently open.
func (w *FeedWorker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *FeedWorker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			if !domain.IsRetriable(err) {
				w.logger.Error("BitMEX feed refused, giving up", slog.Any("error", err))
				w.publish(&event.StatusNote{Text: fmt.Sprintf("Feed stopped: %v", err)})
				return
			}
			delay := infra.CalculateBackoff(retryCount)
			w.logger.Warn("BitMEX feed connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			w.publish(&event.StatusNote{Text: fmt.Sprintf("Feed connection failed, retrying in %s", delay)})
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0 // keep retrying; an operator is watching
			}
			if w.metrics != nil {
				w.metrics.RecordReconnect()
			}
			if !infra.SleepContext(ctx, delay) {
				return
			}
			continue
		}

		retryCount = 0
		w.readLoop(ctx)
		if ctx.Err() == nil {
			w.publish(&event.StatusNote{Text: "Feed disconnected, reconnecting"})
		}
	}
}

func (w *FeedWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeWait}
	conn, resp, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", domain.ErrConnectionFailed, err)
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return domain.NewFatalNetworkError("dial", wrapped)
		}
		return domain.NewNetworkError("dial", wrapped)
	}

	connCtx, connCancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.conn = conn
	w.connCancel = connCancel
	w.connected = true
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.IncrementConnections()
	}

	if w.signer.HasCredentials() {
		if err := w.send(wsRequest{Op: "authKeyExpires", Args: w.signer.RealtimeAuthArgs()}); err != nil {
			w.closeConnection()
			return err
		}
	}

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return err
	}

	go w.pingLoop(connCtx)
	w.logger.Info("BitMEX feed connected", slog.String("url", w.url))
	return nil
}

func (w *FeedWorker) subscribe() error {
	if len(w.subscriptions) == 0 {
		return nil
	}
	args := make([]any, 0, len(w.subscriptions))
	for _, s := range w.subscriptions {
		args = append(args, s)
	}
	return w.send(wsRequest{Op: "subscribe", Args: args})
}

func (w *FeedWorker) send(req wsRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		w.logger.Error("Failed to marshal request", slog.String("op", req.Op), slog.Any("error", err))
		return err
	}
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *FeedWorker) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.threadSafeWrite(websocket.TextMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

func (w *FeedWorker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return domain.ErrNotConnected
	}
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteMessage(msgType, data)
}

func (w *FeedWorker) readLoop(ctx context.Context) {
	decoder := NewFeedDecoder()
	buf := make([]event.Event, 0, 4)

	for {
		select {
		case <-ctx.Done():
			w.closeConnection()
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warn("BitMEX feed read failed", slog.Any("error", err))
			}
			w.closeConnection()
			return
		}
		if msgType != websocket.TextMessage || string(msg) == "pong" {
			continue
		}

		buf, err = decoder.Decode(msg, buf[:0])
		if err != nil {
			w.logger.Error("Undecodable feed frame", slog.Any("error", err), slog.String("payload", string(msg)))
			continue
		}
		if len(buf) == 0 {
			w.logger.Debug("Ignored feed frame", slog.String("payload", string(msg)))
		}
		for _, ev := range buf {
			w.publish(ev)
		}
	}
}

func (w *FeedWorker) publish(ev event.Event) {
	if err := w.out.Publish(ev); err != nil {
		event.Release(ev) // Release if dropped
	}
}

func (w *FeedWorker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.connCancel != nil {
		w.connCancel()
		w.connCancel = nil
	}
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
		if w.metrics != nil {
			w.metrics.DecrementConnections()
		}
	}
	w.connected = false
}

// Disconnect stops the connection loop and waits for it to exit.
func (w *FeedWorker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
