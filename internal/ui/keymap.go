package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the terminal's key bindings.
type KeyMap struct {
	BuyAtBid    key.Binding
	SellAtAsk   key.Binding
	BuyAtAsk    key.Binding
	SellAtBid   key.Binding
	IncreaseQty key.Binding
	DecreaseQty key.Binding
	RotateKind  key.Binding
	Cancel      key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		BuyAtBid: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "buy @ bid"),
		),
		SellAtAsk: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "sell @ ask"),
		),
		BuyAtAsk: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "buy @ ask"),
		),
		SellAtBid: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sell @ bid"),
		),
		IncreaseQty: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+/=", "up qty"),
		),
		DecreaseQty: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-/_", "down qty"),
		),
		RotateKind: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "rotate order type"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel order"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "exit"),
		),
	}
}

// Bindings lists every binding in help order.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{
		k.BuyAtBid, k.SellAtAsk, k.BuyAtAsk, k.SellAtBid,
		k.IncreaseQty, k.DecreaseQty, k.RotateKind, k.Cancel, k.Quit,
	}
}

// Header renders the key guide shown above the trading state.
func (k KeyMap) Header(title string) string {
	var sb strings.Builder
	sb.WriteString(title)
	for _, b := range k.Bindings() {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		sb.WriteString("\n  ")
		sb.WriteString(h.Key)
		sb.WriteString(": ")
		sb.WriteString(h.Desc)
	}
	return sb.String()
}
