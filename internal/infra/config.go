package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"warrior_go/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	ModeLive  = "live"
	ModePaper = "paper"
)

// Config holds every setting of the terminal.
// It is loaded once by LoadConfig and passed explicitly to whatever needs it.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Mode    string `yaml:"mode"`
	} `yaml:"app"`

	API struct {
		Bitmex struct {
			WSURL           string   `yaml:"ws_url"`
			RestURL         string   `yaml:"rest_url"`
			APIKey          string   `yaml:"api_key"`
			APISecret       string   `yaml:"api_secret"`
			Symbol          string   `yaml:"symbol"`
			Subscriptions   []string `yaml:"subscriptions"`
			SignatureTTLSec int      `yaml:"signature_ttl_sec"`
		} `yaml:"bitmex"`
	} `yaml:"api"`

	Trading struct {
		InitQty          decimal.Decimal `yaml:"init_qty"`
		QtyStep          decimal.Decimal `yaml:"qty_step"`
		CommandTimeoutMS int             `yaml:"command_timeout_ms"`
	} `yaml:"trading"`

	UI struct {
		RepeatWindowMS int  `yaml:"repeat_window_ms"`
		AltScreen      bool `yaml:"alt_screen"`
	} `yaml:"ui"`

	Logging struct {
		Level  string `yaml:"level"`
		Dir    string `yaml:"dir"`
		Stdout bool   `yaml:"stdout"`
	} `yaml:"logging"`

	Debug struct {
		Listen string `yaml:"listen"`
	} `yaml:"debug"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`
}

// LoadConfig reads and parses the config file, applies env overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.ConfigError{Field: path, Err: domain.ErrConfigNotFound}
		}
		return nil, err
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML config bytes.
func ParseConfig(data []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Secrets may come from the environment instead of the file.
	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "warrior"
	cfg.App.Mode = ModeLive
	cfg.API.Bitmex.Symbol = "XBTUSD"
	cfg.API.Bitmex.SignatureTTLSec = 5
	cfg.Trading.InitQty = decimal.NewFromInt(100)
	cfg.Trading.QtyStep = decimal.NewFromInt(50)
	cfg.Trading.CommandTimeoutMS = 5000
	cfg.UI.RepeatWindowMS = 250
	cfg.UI.AltScreen = true
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	cfg.Storage.Path = "data/warrior.db"
	return cfg
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch c.App.Mode {
	case ModeLive, ModePaper:
	default:
		return &domain.ConfigError{Field: "app.mode", Err: fmt.Errorf("unknown mode %q", c.App.Mode)}
	}

	b := c.API.Bitmex
	if c.App.Mode == ModeLive {
		if !strings.HasPrefix(b.WSURL, "ws://") && !strings.HasPrefix(b.WSURL, "wss://") {
			return &domain.ConfigError{Field: "api.bitmex.ws_url", Err: fmt.Errorf("invalid websocket url %q", b.WSURL)}
		}
		if !strings.HasPrefix(b.RestURL, "http://") && !strings.HasPrefix(b.RestURL, "https://") {
			return &domain.ConfigError{Field: "api.bitmex.rest_url", Err: fmt.Errorf("invalid rest url %q", b.RestURL)}
		}
		if b.APIKey == "" || b.APISecret == "" {
			return &domain.ConfigError{Field: "api.bitmex.api_key", Err: fmt.Errorf("credentials required in live mode")}
		}
	}
	if b.Symbol == "" {
		return &domain.ConfigError{Field: "api.bitmex.symbol", Err: fmt.Errorf("symbol is required")}
	}
	if b.SignatureTTLSec <= 0 {
		return &domain.ConfigError{Field: "api.bitmex.signature_ttl_sec", Err: fmt.Errorf("must be positive")}
	}

	if !c.Trading.QtyStep.IsPositive() {
		return &domain.ConfigError{Field: "trading.qty_step", Err: fmt.Errorf("must be positive")}
	}
	if c.Trading.InitQty.LessThan(c.Trading.QtyStep) {
		return &domain.ConfigError{Field: "trading.init_qty", Err: fmt.Errorf("must be at least qty_step")}
	}
	if c.Trading.CommandTimeoutMS <= 0 {
		return &domain.ConfigError{Field: "trading.command_timeout_ms", Err: fmt.Errorf("must be positive")}
	}

	if c.UI.RepeatWindowMS < 0 {
		return &domain.ConfigError{Field: "ui.repeat_window_ms", Err: fmt.Errorf("must not be negative")}
	}

	if c.Storage.Enabled && c.Storage.Path == "" {
		return &domain.ConfigError{Field: "storage.path", Err: fmt.Errorf("path required when storage is enabled")}
	}

	return nil
}

// CommandTimeout bounds a single order command round trip.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Trading.CommandTimeoutMS) * time.Millisecond
}

// RepeatWindow is how long an identical key press is suppressed.
func (c *Config) RepeatWindow() time.Duration {
	return time.Duration(c.UI.RepeatWindowMS) * time.Millisecond
}

// SignatureTTL is how far in the future signed requests expire.
func (c *Config) SignatureTTL() time.Duration {
	return time.Duration(c.API.Bitmex.SignatureTTLSec) * time.Second
}

// overrideWithEnv overwrites credentials with environment variables when present.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("WARRIOR_BITMEX_KEY"); key != "" {
		cfg.API.Bitmex.APIKey = key
	}
	if secret := os.Getenv("WARRIOR_BITMEX_SECRET"); secret != "" {
		cfg.API.Bitmex.APISecret = secret
	}
}
