package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"warrior_go/internal/domain"

	"github.com/shopspring/decimal"
)

const liveYAML = `
app:
  name: warrior
  version: "0.3.0"
  mode: live
api:
  bitmex:
    ws_url: wss://testnet.bitmex.com/realtime
    rest_url: https://testnet.bitmex.com
    api_key: file-key
    api_secret: file-secret
    symbol: XBTUSD
    subscriptions: ["orderBook10:XBTUSD", "order"]
trading:
  init_qty: "200"
  qty_step: 25
  command_timeout_ms: 3000
ui:
  repeat_window_ms: 100
`

func TestParseConfig_Live(t *testing.T) {
	cfg, err := ParseConfig([]byte(liveYAML))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if cfg.API.Bitmex.Symbol != "XBTUSD" {
		t.Errorf("symbol = %q", cfg.API.Bitmex.Symbol)
	}
	if len(cfg.API.Bitmex.Subscriptions) != 2 {
		t.Errorf("subscriptions = %v", cfg.API.Bitmex.Subscriptions)
	}
	if !cfg.Trading.InitQty.Equal(decimal.NewFromInt(200)) {
		t.Errorf("init_qty = %s", cfg.Trading.InitQty)
	}
	if !cfg.Trading.QtyStep.Equal(decimal.NewFromInt(25)) {
		t.Errorf("qty_step = %s", cfg.Trading.QtyStep)
	}
	if cfg.CommandTimeout() != 3*time.Second {
		t.Errorf("CommandTimeout() = %v", cfg.CommandTimeout())
	}
	if cfg.RepeatWindow() != 100*time.Millisecond {
		t.Errorf("RepeatWindow() = %v", cfg.RepeatWindow())
	}

	// defaults survive for keys the file leaves out
	if cfg.SignatureTTL() != 5*time.Second {
		t.Errorf("SignatureTTL() = %v", cfg.SignatureTTL())
	}
	if cfg.Logging.Dir != "logs" {
		t.Errorf("logging.dir = %q", cfg.Logging.Dir)
	}
}

func TestParseConfig_EnvOverride(t *testing.T) {
	t.Setenv("WARRIOR_BITMEX_KEY", "env-key")
	t.Setenv("WARRIOR_BITMEX_SECRET", "env-secret")

	cfg, err := ParseConfig([]byte(liveYAML))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg.API.Bitmex.APIKey != "env-key" || cfg.API.Bitmex.APISecret != "env-secret" {
		t.Errorf("env override not applied: %q / %q", cfg.API.Bitmex.APIKey, cfg.API.Bitmex.APISecret)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"unknown mode", "app:\n  mode: demo\n", "app.mode"},
		{"live without urls", "app:\n  mode: live\n", "api.bitmex.ws_url"},
		{"zero step", "app:\n  mode: paper\ntrading:\n  qty_step: 0\n", "trading.qty_step"},
		{"size below step", "app:\n  mode: paper\ntrading:\n  init_qty: 10\n  qty_step: 20\n", "trading.init_qty"},
		{"storage without path", "app:\n  mode: paper\nstorage:\n  enabled: true\n  path: \"\"\n", "storage.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			var ce *domain.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestParseConfig_PaperNeedsNoCredentials(t *testing.T) {
	cfg, err := ParseConfig([]byte("app:\n  mode: paper\n"))
	if err != nil {
		t.Fatalf("paper config rejected: %v", err)
	}
	if cfg.App.Mode != ModePaper {
		t.Errorf("mode = %q", cfg.App.Mode)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(liveYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.App.Version != "0.3.0" {
		t.Errorf("version = %q", cfg.App.Version)
	}
}
