package domain

import "github.com/shopspring/decimal"

// UnknownPrice marks a bid/ask that has not been observed yet.
var UnknownPrice = decimal.NewFromInt(-1)

// TradingState is the sole mutable aggregate of the terminal.
// It is owned by the sequencer goroutine; nothing else reads or writes it.
type TradingState struct {
	BestBid decimal.Decimal
	BestAsk decimal.Decimal

	OrderSize     decimal.Decimal
	OrderSizeStep decimal.Decimal

	// ActiveOrder is nil when no order is in flight.
	ActiveOrder *Order

	OrderKindIndex int
	StatusText     string

	// Dirty is set when the last reducer call changed something worth redrawing.
	Dirty bool
}

// NewTradingState creates the initial state with unknown prices and no active order.
func NewTradingState(size, step decimal.Decimal) *TradingState {
	return &TradingState{
		BestBid:       UnknownPrice,
		BestAsk:       UnknownPrice,
		OrderSize:     size,
		OrderSizeStep: step,
	}
}

// OrderKind returns the currently selected order kind.
func (s *TradingState) OrderKind() OrderKind {
	return OrderKinds[s.OrderKindIndex%len(OrderKinds)]
}

// RotateOrderKind advances the kind cursor, wrapping at the end of the list.
func (s *TradingState) RotateOrderKind() {
	s.OrderKindIndex = (s.OrderKindIndex + 1) % len(OrderKinds)
}

// PricesKnown reports whether both sides of the book have been observed.
func (s *TradingState) PricesKnown() bool {
	return !s.BestBid.IsNegative() && !s.BestAsk.IsNegative()
}

// Price resolves a price reference against the current top of book.
func (s *TradingState) Price(ref PriceRef) decimal.Decimal {
	if ref == PriceRefAsk {
		return s.BestAsk
	}
	return s.BestBid
}
