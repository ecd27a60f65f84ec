package bitmex

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"warrior_go/internal/domain"
	"warrior_go/internal/infra"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(restURL, wsURL string) *infra.Config {
	cfg := &infra.Config{}
	cfg.API.Bitmex.RestURL = restURL
	cfg.API.Bitmex.WSURL = wsURL
	cfg.API.Bitmex.APIKey = "key"
	cfg.API.Bitmex.APISecret = "secret"
	cfg.API.Bitmex.Symbol = "XBTUSD"
	cfg.API.Bitmex.SignatureTTLSec = 5
	return cfg
}

type capturedRequest struct {
	method  string
	path    string
	body    string
	form    url.Values
	headers http.Header
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got.method = r.Method
		got.path = r.URL.Path
		got.body = string(b)
		got.form, _ = url.ParseQuery(got.body)
		got.headers = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestClient_PlaceLimitOrder(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `{"orderID":"x-1","clOrdID":"A","symbol":"XBTUSD","side":"Buy","orderQty":10,"price":100.5,"ordType":"Limit","ordStatus":"New"}`)
	c := NewClient(testConfig(srv.URL, ""))

	order := domain.Order{
		ID:    "A",
		Kind:  domain.OrderKindLimit,
		Side:  domain.SideBuy,
		Price: decimal.RequireFromString("100.5"),
		Qty:   decimal.NewFromInt(10),
	}
	snap, err := c.PlaceOrder(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/v1/order", got.path)
	assert.Equal(t, "XBTUSD", got.form.Get("symbol"))
	assert.Equal(t, "Limit", got.form.Get("ordType"))
	assert.Equal(t, "GoodTillCancel", got.form.Get("timeInForce"))
	assert.Equal(t, "10", got.form.Get("orderQty"))
	assert.Equal(t, "Buy", got.form.Get("side"))
	assert.Equal(t, "100.5", got.form.Get("price"))
	assert.Equal(t, "A", got.form.Get("clOrdID"))
	assert.Empty(t, got.form.Get("stopPx"))

	assert.Equal(t, "key", got.headers.Get("api-key"))
	expires := got.headers.Get("api-expires")
	require.NotEmpty(t, expires)
	assert.Equal(t, Sign("secret", "POST/api/v1/order"+expires+got.body), got.headers.Get("api-signature"))

	assert.Equal(t, "A", snap.ID)
	assert.Equal(t, domain.OrderStatusNew, snap.Status)
	require.NotNil(t, snap.Price)
	assert.True(t, snap.Price.Equal(decimal.RequireFromString("100.5")))
	require.NotNil(t, snap.Kind)
	assert.Equal(t, domain.OrderKindLimit, *snap.Kind)
	require.NotNil(t, snap.Side)
	assert.Equal(t, domain.SideBuy, *snap.Side)
}

func TestOrderForm(t *testing.T) {
	tests := []struct {
		name      string
		kind      domain.OrderKind
		wantPrice bool
		wantStop  bool
	}{
		{"limit", domain.OrderKindLimit, true, false},
		{"stop limit", domain.OrderKindStopLimit, true, true},
		{"market", domain.OrderKindMarket, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form, err := orderForm("XBTUSD", domain.Order{
				ID:    "A",
				Kind:  tt.kind,
				Side:  domain.SideSell,
				Price: decimal.NewFromInt(200),
				Qty:   decimal.NewFromInt(5),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.kind.String(), form.Get("ordType"))
			assert.Equal(t, "Sell", form.Get("side"))
			assert.Equal(t, tt.wantPrice, form.Has("price"))
			assert.Equal(t, tt.wantStop, form.Has("stopPx"))
			if tt.wantStop {
				assert.Equal(t, form.Get("price"), form.Get("stopPx"))
			}
		})
	}

	_, err := orderForm("XBTUSD", domain.Order{Kind: domain.OrderKindLimit})
	assert.ErrorIs(t, err, domain.ErrEmptyOrderID)

	_, err = orderForm("XBTUSD", domain.Order{ID: "A", Kind: domain.OrderKind(42)})
	assert.ErrorIs(t, err, domain.ErrUnsupportedOrderKind)
}

func TestClient_PlaceOrderExchangeError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"error":{"message":"Invalid orderQty","name":"ValidationError"}}`)
	c := NewClient(testConfig(srv.URL, ""))

	_, err := c.PlaceOrder(context.Background(), domain.Order{ID: "A", Kind: domain.OrderKindMarket, Qty: decimal.NewFromInt(1)})
	require.Error(t, err)

	var ee *domain.ExchangeError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 400, ee.Status)
	assert.Equal(t, "ValidationError", ee.Name)
	assert.Equal(t, "Invalid orderQty", ee.Message)
	assert.False(t, domain.IsRetriable(err))
}

func TestClient_PlaceOrderOverloaded(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusServiceUnavailable, `overloaded`)
	c := NewClient(testConfig(srv.URL, ""))

	_, err := c.PlaceOrder(context.Background(), domain.Order{ID: "A", Kind: domain.OrderKindMarket, Qty: decimal.NewFromInt(1)})
	var ee *domain.ExchangeError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "overloaded", ee.Message)
	assert.True(t, domain.IsRetriable(err))
}

func TestClient_PlaceOrderMalformed(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"clOrdID":"A","ordStatus":"Mystery"}`)
	c := NewClient(testConfig(srv.URL, ""))

	_, err := c.PlaceOrder(context.Background(), domain.Order{ID: "A", Kind: domain.OrderKindMarket, Qty: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestClient_CancelOrder(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `[{"orderID":"x-1","clOrdID":"A","side":"Sell","orderQty":5,"price":200,"ordType":"Limit","ordStatus":"Canceled"}]`)
	c := NewClient(testConfig(srv.URL, ""))

	snap, err := c.CancelOrder(context.Background(), "A")
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, got.method)
	assert.Equal(t, "clOrdID=A", got.body)
	expires := got.headers.Get("api-expires")
	assert.Equal(t, Sign("secret", "DELETE/api/v1/order"+expires+"clOrdID=A"), got.headers.Get("api-signature"))

	assert.Equal(t, "A", snap.ID)
	assert.Equal(t, domain.OrderStatusCanceled, snap.Status)
}

func TestClient_CancelUnknownOrder(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[]`)
	c := NewClient(testConfig(srv.URL, ""))

	_, err := c.CancelOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUnknownOrder)

	_, err = c.CancelOrder(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyOrderID)
}

func TestClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) }) // runs before srv.Close
	c := NewClient(testConfig(srv.URL, ""))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.CancelOrder(ctx, "A")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
