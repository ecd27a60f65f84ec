package engine

import (
	"fmt"

	"warrior_go/internal/domain"
	"warrior_go/internal/event"

	"github.com/google/uuid"
)

// Orchestrator is the order-lifecycle reducer.
// Apply mutates the trading state and returns at most one command; it never fails.
// It holds no trading state of its own and must only be called from the sequencer goroutine.
type Orchestrator struct {
	newID func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithIDGenerator replaces the uuid client order id generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		o.newID = fn
	}
}

// NewOrchestrator creates a reducer that assigns uuid client order ids.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{newID: uuid.NewString}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Apply applies one event to st. st.Dirty reports whether anything visible changed.
// A nil return means no command.
func (o *Orchestrator) Apply(ev event.Event, st *domain.TradingState) domain.Command {
	st.Dirty = false

	switch e := ev.(type) {
	case *event.IncreaseQty:
		st.OrderSize = st.OrderSize.Add(st.OrderSizeStep)
		st.Dirty = true

	case *event.DecreaseQty:
		next := st.OrderSize.Sub(st.OrderSizeStep)
		if next.LessThan(st.OrderSizeStep) {
			return nil
		}
		st.OrderSize = next
		st.Dirty = true

	case *event.RotateOrderKind:
		st.RotateOrderKind()
		st.Dirty = true

	case *event.NewBid:
		if !st.BestBid.Equal(e.Price) {
			st.BestBid = e.Price
			st.Dirty = true
		}

	case *event.NewAsk:
		if !st.BestAsk.Equal(e.Price) {
			st.BestAsk = e.Price
			st.Dirty = true
		}

	case *event.Buy:
		return o.open(st, domain.SideBuy, e.Ref)

	case *event.Sell:
		return o.open(st, domain.SideSell, e.Ref)

	case *event.CancelActiveOrder:
		return o.cancel(st)

	case *event.OrderAcknowledged:
		o.acknowledge(st, e.Snapshot)

	case *event.StatusNote:
		st.StatusText = e.Text
		st.Dirty = true

	case *event.Shutdown:
		// terminal; the sequencer stops after this event

	default:
		// unreachable for events built by this module
	}
	return nil
}

func (o *Orchestrator) open(st *domain.TradingState, side domain.Side, ref domain.PriceRef) domain.Command {
	st.Dirty = true

	if !st.PricesKnown() {
		st.StatusText = "Won't trade till ask/bid populated!"
		return nil
	}
	if st.ActiveOrder != nil {
		st.StatusText = fmt.Sprintf("Won't trade whilst another trade %s is in force!", st.ActiveOrder.ID)
		return nil
	}

	order := domain.Order{
		ID:     o.newID(),
		Kind:   st.OrderKind(),
		Side:   side,
		Price:  st.Price(ref),
		Qty:    st.OrderSize,
		Status: domain.OrderStatusNotYetIssued,
	}
	st.ActiveOrder = &order
	st.StatusText = fmt.Sprintf("New %s %s order %s of %s @ %s", side, order.Kind, order.ID, order.Qty, order.Price)

	return domain.IssueOrder{Order: order}
}

func (o *Orchestrator) cancel(st *domain.TradingState) domain.Command {
	st.Dirty = true

	active := st.ActiveOrder
	if active == nil {
		st.StatusText = "No order to cancel"
		return nil
	}
	if !active.Status.IsCancelable() {
		st.StatusText = fmt.Sprintf("Order %s is %s, ignoring cancel", active.ID, active.Status)
		return nil
	}

	active.Status = domain.OrderStatusCanceling
	st.StatusText = fmt.Sprintf("Issued order cancel: %s", active.ID)

	return domain.CancelOrder{ID: active.ID}
}

// acknowledge applies a snapshot to the active order. Snapshots for any other id, including
// the empty id of orders placed outside this terminal, leave the state untouched.
func (o *Orchestrator) acknowledge(st *domain.TradingState, snap domain.OrderSnapshot) {
	active := st.ActiveOrder
	if active == nil || snap.ID == "" || snap.ID != active.ID {
		return
	}

	merged := domain.MergeSnapshot(*active, snap)
	st.Dirty = true

	switch merged.Status {
	case domain.OrderStatusCanceled:
		st.StatusText = fmt.Sprintf("Canceled %s %s order: %s", merged.Side, merged.Kind, merged.ID)
		st.ActiveOrder = nil
	case domain.OrderStatusFilled:
		st.StatusText = fmt.Sprintf("Filled %s %s order: %s of %s @ %s", merged.Side, merged.Kind, merged.ID, merged.Qty, merged.Price)
		st.ActiveOrder = nil
	case domain.OrderStatusRejected:
		st.StatusText = fmt.Sprintf("Rejected %s %s order: %s", merged.Side, merged.Kind, merged.ID)
		st.ActiveOrder = nil
	default:
		st.StatusText = fmt.Sprintf("Updated %s %s order: %s of %s @ %s (%s)", merged.Side, merged.Kind, merged.ID, merged.Qty, merged.Price, merged.Status)
		*active = merged
	}
}
