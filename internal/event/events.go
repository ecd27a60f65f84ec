package event

import (
	"warrior_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Type defines the type of event.
type Type uint16

const (
	EvIncreaseQty Type = iota + 1
	EvDecreaseQty
	EvRotateOrderKind
	EvNewBid
	EvNewAsk
	EvBuy
	EvSell
	EvCancelActiveOrder
	EvOrderAcknowledged
	EvStatusNote
	EvShutdown
)

func (t Type) String() string {
	switch t {
	case EvIncreaseQty:
		return "IncreaseQty"
	case EvDecreaseQty:
		return "DecreaseQty"
	case EvRotateOrderKind:
		return "RotateOrderKind"
	case EvNewBid:
		return "NewBid"
	case EvNewAsk:
		return "NewAsk"
	case EvBuy:
		return "Buy"
	case EvSell:
		return "Sell"
	case EvCancelActiveOrder:
		return "CancelActiveOrder"
	case EvOrderAcknowledged:
		return "OrderAcknowledged"
	case EvStatusNote:
		return "StatusNote"
	case EvShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Event is the interface for all sequencer events.
// Seq and Ts are stamped by the queue when the event is published.
type Event interface {
	GetSeq() uint64
	GetTs() int64
	GetType() Type
	SetHeader(seq uint64, ts int64)
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"` // Unix microseconds
}

func (e *BaseEvent) GetSeq() uint64 { return e.Seq }
func (e *BaseEvent) GetTs() int64   { return e.Ts }

func (e *BaseEvent) SetHeader(seq uint64, ts int64) {
	e.Seq = seq
	e.Ts = ts
}

// Operator intents

type IncreaseQty struct{ BaseEvent }

type DecreaseQty struct{ BaseEvent }

type RotateOrderKind struct{ BaseEvent }

// Buy opens a buy order priced at the referenced side of the book.
type Buy struct {
	BaseEvent
	Ref domain.PriceRef
}

// Sell opens a sell order priced at the referenced side of the book.
type Sell struct {
	BaseEvent
	Ref domain.PriceRef
}

type CancelActiveOrder struct{ BaseEvent }

// Shutdown is the terminal event; the sequencer stops after applying it.
type Shutdown struct{ BaseEvent }

// Feed and transport events

// NewBid carries the latest best bid.
type NewBid struct {
	BaseEvent
	Price decimal.Decimal
}

// NewAsk carries the latest best ask.
type NewAsk struct {
	BaseEvent
	Price decimal.Decimal
}

// OrderAcknowledged reports the exchange's current view of an order.
type OrderAcknowledged struct {
	BaseEvent
	Snapshot domain.OrderSnapshot
}

// StatusNote is narrative text for the operator (info, errors, transport failures).
type StatusNote struct {
	BaseEvent
	Text string
}

func (*IncreaseQty) GetType() Type       { return EvIncreaseQty }
func (*DecreaseQty) GetType() Type       { return EvDecreaseQty }
func (*RotateOrderKind) GetType() Type   { return EvRotateOrderKind }
func (*NewBid) GetType() Type            { return EvNewBid }
func (*NewAsk) GetType() Type            { return EvNewAsk }
func (*Buy) GetType() Type               { return EvBuy }
func (*Sell) GetType() Type              { return EvSell }
func (*CancelActiveOrder) GetType() Type { return EvCancelActiveOrder }
func (*OrderAcknowledged) GetType() Type { return EvOrderAcknowledged }
func (*StatusNote) GetType() Type        { return EvStatusNote }
func (*Shutdown) GetType() Type          { return EvShutdown }
