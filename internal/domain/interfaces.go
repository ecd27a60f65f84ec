package domain

import (
	"context"
)

// ExchangeWorker defines the interface for exchange WebSocket connectors
type ExchangeWorker interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}

// OrderTransport executes order commands against a venue and reports the venue's view of the order.
// Implementations must honour ctx cancellation; they never retry on their own.
type OrderTransport interface {
	PlaceOrder(ctx context.Context, order Order) (OrderSnapshot, error)
	CancelOrder(ctx context.Context, id string) (OrderSnapshot, error)
}

// PreferenceStore persists operator settings between sessions.
type PreferenceStore interface {
	SaveConfig(key, value string) error
	LoadConfigMap() (map[string]string, error)
}
