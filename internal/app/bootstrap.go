package app

import (
	"log/slog"
	"strconv"
	"time"

	"warrior_go/internal/domain"
	"warrior_go/internal/execution"
	"warrior_go/internal/infra"
	"warrior_go/internal/infra/bitmex"
	"warrior_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// paperLatency is the simulated venue round trip in paper mode.
const paperLatency = 50 * time.Millisecond

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	ConfigPath string

	Config  *infra.Config
	Storage *storage.Storage // nil when storage is disabled
	Metrics *infra.Metrics
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap(configPath string) *Bootstrap {
	return &Bootstrap{ConfigPath: configPath}
}

// Initialize loads config, sets up logging, storage and metrics.
func (b *Bootstrap) Initialize() error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(b.ConfigPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("Bootstrapping warrior...",
		slog.String("version", cfg.App.Version),
		slog.String("mode", cfg.App.Mode),
		slog.String("symbol", cfg.API.Bitmex.Symbol))

	// 3. Initialize Storage (DB)
	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(cfg.Storage.Path)
		if err != nil {
			return err
		}
		b.Storage = store
		slog.Info("Preference store initialized", slog.String("path", cfg.Storage.Path))
	}

	// 4. Metrics
	b.Metrics = infra.NewMetrics()

	return nil
}

// NewTradingState seeds the initial state from config, overlaid with stored preferences.
func (b *Bootstrap) NewTradingState() *domain.TradingState {
	st := domain.NewTradingState(b.Config.Trading.InitQty, b.Config.Trading.QtyStep)
	if b.Storage == nil {
		return st
	}

	prefs, err := b.Storage.LoadConfigMap()
	if err != nil {
		slog.Warn("Failed to load preferences", slog.Any("error", err))
		return st
	}
	ApplyPreferences(st, prefs)
	return st
}

// SavePreferences stores the operator's final order size and kind.
func (b *Bootstrap) SavePreferences(st *domain.TradingState) {
	if b.Storage == nil {
		return
	}
	for k, v := range Preferences(st) {
		if err := b.Storage.SaveConfig(k, v); err != nil {
			slog.Error("Failed to save preference", slog.String("key", k), slog.Any("error", err))
		}
	}
}

// Transport returns the order transport for the configured mode.
func (b *Bootstrap) Transport() domain.OrderTransport {
	if b.Config.App.Mode == infra.ModePaper {
		slog.Info("Paper trading: orders stay local")
		return execution.NewPaperVenue(paperLatency)
	}
	return bitmex.NewClient(b.Config)
}

// Close releases the preference store.
func (b *Bootstrap) Close() {
	if b.Storage == nil {
		return
	}
	if err := b.Storage.Close(); err != nil {
		slog.Error("Failed to close storage", slog.Any("error", err))
	}
}

// ApplyPreferences overlays stored preferences onto st. Values that no longer fit
// the configured step are ignored.
func ApplyPreferences(st *domain.TradingState, prefs map[string]string) {
	if v, ok := prefs[domain.PrefOrderSize]; ok {
		size, err := decimal.NewFromString(v)
		switch {
		case err != nil:
			slog.Warn("Ignoring unreadable order size preference", slog.String("value", v))
		case size.LessThan(st.OrderSizeStep):
			slog.Warn("Ignoring order size preference below step", slog.String("value", v))
		default:
			st.OrderSize = size
		}
	}

	if v, ok := prefs[domain.PrefOrderKindIndex]; ok {
		idx, err := strconv.Atoi(v)
		if err != nil || idx < 0 || idx >= len(domain.OrderKinds) {
			slog.Warn("Ignoring order kind preference", slog.String("value", v))
		} else {
			st.OrderKindIndex = idx
		}
	}
}

// Preferences extracts the persisted subset of st.
func Preferences(st *domain.TradingState) map[string]string {
	return map[string]string{
		domain.PrefOrderSize:      st.OrderSize.String(),
		domain.PrefOrderKindIndex: strconv.Itoa(st.OrderKindIndex),
	}
}
