package bitmex

import (
	"fmt"

	"warrior_go/internal/domain"
	"warrior_go/internal/event"

	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"
)

// FeedDecoder turns realtime frames into events.
// It remembers which exchange order id belongs to which client id, because order
// table updates often carry only the exchange id. Not safe for concurrent use.
type FeedDecoder struct {
	parser   fastjson.Parser
	clientID map[string]string // orderID -> clOrdID
}

// NewFeedDecoder creates a decoder with an empty order id map.
func NewFeedDecoder() *FeedDecoder {
	return &FeedDecoder{clientID: make(map[string]string)}
}

// Decode appends the events carried by msg to dst.
// Frames of tables nobody consumes decode to nothing.
func (d *FeedDecoder) Decode(msg []byte, dst []event.Event) ([]event.Event, error) {
	v, err := d.parser.ParseBytes(msg)
	if err != nil {
		return dst, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	switch {
	case v.Exists("table"):
		return d.decodeTable(v, dst)

	case v.Exists("subscribe"):
		text := fmt.Sprintf("Subscribed to %s: %t", v.GetStringBytes("subscribe"), v.GetBool("success"))
		return append(dst, &event.StatusNote{Text: text}), nil

	case v.Exists("success") && string(v.GetStringBytes("request", "op")) == "authKeyExpires":
		text := fmt.Sprintf("Authenticated: %t", v.GetBool("success"))
		return append(dst, &event.StatusNote{Text: text}), nil

	case v.Exists("info"):
		return append(dst, &event.StatusNote{Text: "Info: " + string(v.GetStringBytes("info"))}), nil

	case v.Exists("error"):
		text := fmt.Sprintf("Error: %s", v.GetStringBytes("error"))
		if status := v.GetInt("status"); status != 0 {
			text = fmt.Sprintf("Error %d: %s", status, v.GetStringBytes("error"))
		}
		return append(dst, &event.StatusNote{Text: text}), nil
	}

	return dst, nil
}

func (d *FeedDecoder) decodeTable(v *fastjson.Value, dst []event.Event) ([]event.Event, error) {
	switch string(v.GetStringBytes("table")) {
	case "orderBook10":
		book := v.Get("data", "0")
		if book == nil {
			return dst, nil
		}
		if p, ok := decimalOf(book.Get("asks", "0", "0")); ok {
			ask := event.AcquireNewAsk()
			ask.Price = p
			dst = append(dst, ask)
		}
		if p, ok := decimalOf(book.Get("bids", "0", "0")); ok {
			bid := event.AcquireNewBid()
			bid.Price = p
			dst = append(dst, bid)
		}
		return dst, nil

	case "order":
		for _, row := range v.GetArray("data") {
			if snap, ok := d.orderSnapshot(row); ok {
				dst = append(dst, &event.OrderAcknowledged{Snapshot: snap})
			}
		}
		return dst, nil
	}

	return dst, nil
}

// orderSnapshot converts an order table row. Rows without a status carry nothing
// the order lifecycle needs and are skipped.
func (d *FeedDecoder) orderSnapshot(row *fastjson.Value) (domain.OrderSnapshot, bool) {
	orderID := string(row.GetStringBytes("orderID"))
	clOrdID := string(row.GetStringBytes("clOrdID"))

	if clOrdID != "" && orderID != "" {
		d.clientID[orderID] = clOrdID
	} else if clOrdID == "" {
		clOrdID = d.clientID[orderID]
	}

	status, ok := domain.ParseOrderStatus(string(row.GetStringBytes("ordStatus")))
	if !ok {
		return domain.OrderSnapshot{}, false
	}
	if status.IsTerminal() {
		delete(d.clientID, orderID)
	}

	snap := domain.OrderSnapshot{ID: clOrdID, Status: status}
	if kind, ok := domain.ParseOrderKind(string(row.GetStringBytes("ordType"))); ok {
		snap.Kind = &kind
	}
	if side, ok := domain.ParseSide(string(row.GetStringBytes("side"))); ok {
		snap.Side = &side
	}
	if p, ok := decimalOf(row.Get("price")); ok {
		snap.Price = &p
	}
	if q, ok := decimalOf(row.Get("orderQty")); ok {
		snap.Qty = &q
	}
	return snap, true
}

// decimalOf reads a JSON number (or numeric string) without going through float64.
func decimalOf(v *fastjson.Value) (decimal.Decimal, bool) {
	if v == nil {
		return decimal.Zero, false
	}

	var raw string
	switch v.Type() {
	case fastjson.TypeNumber:
		raw = string(v.MarshalTo(nil))
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		raw = string(b)
	default:
		return decimal.Zero, false
	}

	p, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return p, true
}
