package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"warrior_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Fill records a simulated execution.
type Fill struct {
	OrderID string
	Side    domain.Side
	Price   decimal.Decimal
	Qty     decimal.Decimal
	Time    time.Time
}

// PaperVenue is an in-memory order venue used in paper mode.
// Only Market orders fill, at once and at the order price. Limit and StopLimit orders are
// never crossed against the book; they rest until cancelled.
type PaperVenue struct {
	mu      sync.Mutex
	latency time.Duration
	working map[string]domain.Order
	fills   []Fill
	logger  *slog.Logger
}

var _ domain.OrderTransport = (*PaperVenue)(nil)

// NewPaperVenue creates a venue that answers every request after latency.
func NewPaperVenue(latency time.Duration) *PaperVenue {
	return &PaperVenue{
		latency: latency,
		working: make(map[string]domain.Order),
		logger:  slog.Default().With("module", "paper_venue"),
	}
}

// PlaceOrder accepts the order and returns its simulated state.
func (p *PaperVenue) PlaceOrder(ctx context.Context, order domain.Order) (domain.OrderSnapshot, error) {
	if order.ID == "" {
		return domain.OrderSnapshot{}, domain.ErrEmptyOrderID
	}
	if !order.Qty.IsPositive() {
		return domain.OrderSnapshot{}, &domain.ExchangeError{Status: 400, Name: "ValidationError", Message: "Invalid orderQty"}
	}
	if err := p.wait(ctx); err != nil {
		return domain.OrderSnapshot{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.working[order.ID]; exists {
		return domain.OrderSnapshot{}, &domain.ExchangeError{Status: 400, Name: "ValidationError", Message: "Duplicate clOrdID"}
	}

	switch order.Kind {
	case domain.OrderKindMarket:
		order.Status = domain.OrderStatusFilled
		p.fills = append(p.fills, Fill{
			OrderID: order.ID,
			Side:    order.Side,
			Price:   order.Price,
			Qty:     order.Qty,
			Time:    time.Now(),
		})
		p.logger.Info("Paper fill", "clOrdID", order.ID, "side", order.Side.String(), "qty", order.Qty.String(), "price", order.Price.String())
	case domain.OrderKindLimit, domain.OrderKindStopLimit:
		order.Status = domain.OrderStatusNew
		p.working[order.ID] = order
	default:
		return domain.OrderSnapshot{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedOrderKind, order.Kind)
	}

	return order.Snapshot(), nil
}

// CancelOrder cancels a resting order.
func (p *PaperVenue) CancelOrder(ctx context.Context, id string) (domain.OrderSnapshot, error) {
	if id == "" {
		return domain.OrderSnapshot{}, domain.ErrEmptyOrderID
	}
	if err := p.wait(ctx); err != nil {
		return domain.OrderSnapshot{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	order, ok := p.working[id]
	if !ok {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: %s", domain.ErrUnknownOrder, id)
	}
	delete(p.working, id)

	order.Status = domain.OrderStatusCanceled
	return order.Snapshot(), nil
}

// GetFills returns a copy of all simulated fills.
func (p *PaperVenue) GetFills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Fill, len(p.fills))
	copy(out, p.fills)
	return out
}

// WorkingOrders returns the number of resting orders.
func (p *PaperVenue) WorkingOrders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.working)
}

func (p *PaperVenue) wait(ctx context.Context) error {
	if p.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
