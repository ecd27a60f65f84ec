package bitmex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"warrior_go/internal/domain"
	"warrior_go/internal/infra"
)

// Client is the BitMEX REST order client. It implements domain.OrderTransport.
type Client struct {
	baseURL    string
	symbol     string
	httpClient *http.Client
	signer     *Signer
	logger     *slog.Logger
}

// NewClient creates a new BitMEX REST client from config.
func NewClient(cfg *infra.Config) *Client {
	b := cfg.API.Bitmex
	return &Client{
		baseURL: strings.TrimRight(b.RestURL, "/"),
		symbol:  b.Symbol,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		signer: NewSigner(b.APIKey, b.APISecret, cfg.SignatureTTL()),
		logger: slog.Default().With("module", "bitmex_client"),
	}
}

// PlaceOrder submits a new order and returns the exchange's view of it.
func (c *Client) PlaceOrder(ctx context.Context, order domain.Order) (domain.OrderSnapshot, error) {
	form, err := orderForm(c.symbol, order)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}

	body, err := c.doRequest(ctx, http.MethodPost, orderPath, form)
	if err != nil {
		return domain.OrderSnapshot{}, fmt.Errorf("bitmex place order failed: %w", err)
	}

	var resp restOrder
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	snap, err := resp.snapshot()
	if err != nil {
		return domain.OrderSnapshot{}, err
	}

	c.logger.Info("Order Placed Successfully", "clOrdID", snap.ID, "status", snap.Status.String())
	return snap, nil
}

// CancelOrder cancels the order with the given client id.
func (c *Client) CancelOrder(ctx context.Context, id string) (domain.OrderSnapshot, error) {
	if id == "" {
		return domain.OrderSnapshot{}, domain.ErrEmptyOrderID
	}

	form := url.Values{}
	form.Set("clOrdID", id)

	body, err := c.doRequest(ctx, http.MethodDelete, orderPath, form)
	if err != nil {
		return domain.OrderSnapshot{}, fmt.Errorf("bitmex cancel order failed: %w", err)
	}

	// cancel answers with the list of affected orders
	var resp []restOrder
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	for _, o := range resp {
		if o.ClOrdID != id {
			continue
		}
		if o.Error != "" {
			c.logger.Warn("Cancel reported an order error", "clOrdID", id, "error", o.Error)
		}
		return o.snapshot()
	}
	return domain.OrderSnapshot{}, fmt.Errorf("%w: %s", domain.ErrUnknownOrder, id)
}

// orderForm builds the form parameters for a new order.
func orderForm(symbol string, order domain.Order) (url.Values, error) {
	if order.ID == "" {
		return nil, domain.ErrEmptyOrderID
	}

	form := url.Values{}
	form.Set("symbol", symbol)
	form.Set("ordType", order.Kind.String())
	form.Set("timeInForce", timeInForce)
	form.Set("orderQty", order.Qty.String())
	form.Set("side", order.Side.String())
	form.Set("clOrdID", order.ID)

	switch order.Kind {
	case domain.OrderKindLimit:
		form.Set("price", order.Price.String())
	case domain.OrderKindStopLimit:
		form.Set("price", order.Price.String())
		form.Set("stopPx", order.Price.String())
	case domain.OrderKindMarket:
		// market orders carry no price
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedOrderKind, order.Kind)
	}

	return form, nil
}

// doRequest signs and sends a form-encoded request and returns the body of a 2xx response.
func (c *Client) doRequest(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	encoded := form.Encode()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(encoded))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.signer.GenerateHeaders(method, path, encoded) {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewNetworkError(strings.ToLower(method)+" "+path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError("read "+path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, body)
	}
	return body, nil
}

func parseError(status int, body []byte) *domain.ExchangeError {
	var e restError
	if err := json.Unmarshal(body, &e); err != nil || e.Error.Message == "" {
		return &domain.ExchangeError{Status: status, Name: http.StatusText(status), Message: strings.TrimSpace(string(body))}
	}
	return &domain.ExchangeError{Status: status, Name: e.Error.Name, Message: e.Error.Message}
}

func (o restOrder) snapshot() (domain.OrderSnapshot, error) {
	status, ok := domain.ParseOrderStatus(o.OrdStatus)
	if !ok {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: order status %q", domain.ErrMalformedResponse, o.OrdStatus)
	}

	snap := domain.OrderSnapshot{
		ID:     o.ClOrdID,
		Status: status,
		Price:  o.Price,
		Qty:    o.OrderQty,
	}
	if kind, ok := domain.ParseOrderKind(o.OrdType); ok {
		snap.Kind = &kind
	}
	if side, ok := domain.ParseSide(o.Side); ok {
		snap.Side = &side
	}
	return snap, nil
}
