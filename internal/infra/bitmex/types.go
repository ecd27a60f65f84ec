package bitmex

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	orderPath     = "/api/v1/order"
	realtimePath  = "GET/realtime"
	timeInForce   = "GoodTillCancel"
	pingInterval  = 5 * time.Second
	readTimeout   = 30 * time.Second
	writeTimeout  = 5 * time.Second
	handshakeWait = 10 * time.Second
	maxRetries    = 10
)

// privateTables need an authenticated connection.
var privateTables = map[string]bool{
	"order":     true,
	"execution": true,
	"position":  true,
	"margin":    true,
	"wallet":    true,
}

// publicSubscriptions drops the subscriptions that require authentication.
func publicSubscriptions(subs []string) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		table, _, _ := strings.Cut(s, ":")
		if privateTables[table] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// wsRequest is an outbound websocket command: authKeyExpires, subscribe.
type wsRequest struct {
	Op   string `json:"op"`
	Args []any  `json:"args"`
}

// restOrder is the order object returned by /api/v1/order.
type restOrder struct {
	OrderID   string           `json:"orderID"`
	ClOrdID   string           `json:"clOrdID"`
	Symbol    string           `json:"symbol"`
	Side      string           `json:"side"`
	OrderQty  *decimal.Decimal `json:"orderQty"`
	Price     *decimal.Decimal `json:"price"`
	OrdType   string           `json:"ordType"`
	OrdStatus string           `json:"ordStatus"`
	Text      string           `json:"text"`
	Error     string           `json:"error"`
}

// restError is the body BitMEX sends with non-2xx responses.
type restError struct {
	Error struct {
		Message string `json:"message"`
		Name    string `json:"name"`
	} `json:"error"`
}
