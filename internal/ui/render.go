package ui

import (
	"fmt"
	"strings"

	"warrior_go/internal/domain"
)

// Render formats the trading state below header. It is pure.
func Render(header string, st *domain.TradingState) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "BID: %s / ASK: %s\n", st.BestBid.StringFixed(2), st.BestAsk.StringFixed(2))
	fmt.Fprintf(&sb, "QTY: %s\n", st.OrderSize.StringFixed(2))
	fmt.Fprintf(&sb, "ORDER TYPE: %s\n", st.OrderKind())
	fmt.Fprintf(&sb, "STATUS: %s", st.StatusText)

	if o := st.ActiveOrder; o != nil {
		fmt.Fprintf(&sb, "\nCURR ORDER: %s %s %s %s @ %s",
			o.Kind, o.Side, o.Status, o.Qty.StringFixed(5), o.Price.StringFixed(5))
	}
	return sb.String()
}
