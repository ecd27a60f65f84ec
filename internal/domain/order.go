package domain

import "github.com/shopspring/decimal"

// OrderKind is the order type submitted to the exchange.
type OrderKind int

const (
	OrderKindLimit OrderKind = iota
	OrderKindStopLimit
	OrderKindMarket
)

// OrderKinds is the fixed rotation order used by the kind selector.
var OrderKinds = []OrderKind{OrderKindLimit, OrderKindStopLimit, OrderKindMarket}

// String returns the exchange spelling of the kind.
func (k OrderKind) String() string {
	switch k {
	case OrderKindLimit:
		return "Limit"
	case OrderKindStopLimit:
		return "StopLimit"
	case OrderKindMarket:
		return "Market"
	default:
		return "Unknown"
	}
}

// ParseOrderKind maps the exchange spelling back to an OrderKind.
func ParseOrderKind(s string) (OrderKind, bool) {
	switch s {
	case "Limit":
		return OrderKindLimit, true
	case "StopLimit":
		return OrderKindStopLimit, true
	case "Market":
		return OrderKindMarket, true
	default:
		return 0, false
	}
}

// OrderStatus is the lifecycle status of an order.
// NotYetIssued and Canceling are assigned locally before the exchange confirms anything.
type OrderStatus int

const (
	OrderStatusNotYetIssued OrderStatus = iota
	OrderStatusNew
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusCanceling
	OrderStatusCanceled
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusNotYetIssued:
		return "NotYetIssued"
	case OrderStatusNew:
		return "New"
	case OrderStatusPartiallyFilled:
		return "PartiallyFilled"
	case OrderStatusFilled:
		return "Filled"
	case OrderStatusCanceling:
		return "Canceling"
	case OrderStatusCanceled:
		return "Canceled"
	case OrderStatusRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// ParseOrderStatus maps an exchange status string to an OrderStatus.
// BitMEX reports "PendingCancel" while a cancel is in progress.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch s {
	case "New":
		return OrderStatusNew, true
	case "PartiallyFilled":
		return OrderStatusPartiallyFilled, true
	case "Filled":
		return OrderStatusFilled, true
	case "Canceled":
		return OrderStatusCanceled, true
	case "Rejected":
		return OrderStatusRejected, true
	case "PendingCancel":
		return OrderStatusCanceling, true
	default:
		return 0, false
	}
}

// IsTerminal reports whether no further updates are expected for the order.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// IsCancelable reports whether a cancel request may be sent for the order.
func (s OrderStatus) IsCancelable() bool {
	switch s {
	case OrderStatusNotYetIssued, OrderStatusNew, OrderStatusPartiallyFilled:
		return true
	default:
		return false
	}
}

// Side is the direction of an order.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideSell {
		return "Sell"
	}
	return "Buy"
}

// ParseSide maps "Buy"/"Sell" to a Side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "Buy":
		return SideBuy, true
	case "Sell":
		return SideSell, true
	default:
		return 0, false
	}
}

// PriceRef selects which side of the top of book prices a new order.
type PriceRef int

const (
	PriceRefBid PriceRef = iota
	PriceRefAsk
)

func (r PriceRef) String() string {
	if r == PriceRefAsk {
		return "Ask"
	}
	return "Bid"
}

// Order is the orchestrator's full record of the active order.
type Order struct {
	ID     string
	Kind   OrderKind
	Side   Side
	Price  decimal.Decimal
	Qty    decimal.Decimal
	Status OrderStatus
}

// OrderSnapshot is a partial view of an order as reported by the feed or the REST endpoint.
// An empty ID means the exchange did not report a client id (e.g. an order placed elsewhere).
type OrderSnapshot struct {
	ID     string
	Status OrderStatus
	Kind   *OrderKind
	Side   *Side
	Price  *decimal.Decimal
	Qty    *decimal.Decimal
}

// MergeSnapshot overlays the fields present in incoming onto current.
// Status is always taken from incoming; absent optional fields keep their current value.
func MergeSnapshot(current Order, incoming OrderSnapshot) Order {
	merged := current
	merged.Status = incoming.Status
	if incoming.Kind != nil {
		merged.Kind = *incoming.Kind
	}
	if incoming.Side != nil {
		merged.Side = *incoming.Side
	}
	if incoming.Price != nil {
		merged.Price = *incoming.Price
	}
	if incoming.Qty != nil {
		merged.Qty = *incoming.Qty
	}
	return merged
}

// Snapshot returns a fully populated snapshot of the order.
func (o Order) Snapshot() OrderSnapshot {
	kind, side, price, qty := o.Kind, o.Side, o.Price, o.Qty
	return OrderSnapshot{
		ID:     o.ID,
		Status: o.Status,
		Kind:   &kind,
		Side:   &side,
		Price:  &price,
		Qty:    &qty,
	}
}
