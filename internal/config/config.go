// Package config loads the venue's bootstrap configuration: the
// parameters external to the in-memory core types themselves (spec
// §6 — "no CLI and no configuration file at the core level"). This
// mirrors the teacher's internal/config package: a struct tagged for
// both toml and viper/mapstructure, defaults applied before the file
// is read, environment variables layered on top with a SEKEX_ prefix.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete bootstrap configuration for cmd/sekexd.
type Config struct {
	Owner        string       `toml:"owner" mapstructure:"owner"`
	EscrowOB     string       `toml:"orderbook_escrow" mapstructure:"orderbook_escrow"`
	EscrowIncent string       `toml:"incentive_escrow" mapstructure:"incentive_escrow"`
	FeeCollector string       `toml:"fee_collector" mapstructure:"fee_collector"`
	USDTAsset    string       `toml:"usdt_asset" mapstructure:"usdt_asset"`
	TradingFeeBps int64       `toml:"trading_fee_bps" mapstructure:"trading_fee_bps"`

	Storage StorageConfig `toml:"storage" mapstructure:"storage"`
	Audit   AuditConfig   `toml:"audit" mapstructure:"audit"`
	Stream  StreamConfig  `toml:"eventstream" mapstructure:"eventstream"`
}

// StorageConfig selects and configures the snapshot backend.
type StorageConfig struct {
	Backend string `toml:"backend" mapstructure:"backend"` // "memory", "pebble", "leveldb"
	Path    string `toml:"path" mapstructure:"path"`
}

// AuditConfig selects and configures the SQL audit trail.
type AuditConfig struct {
	Driver string `toml:"driver" mapstructure:"driver"` // "sqlite", "postgres"
	DSN    string `toml:"dsn" mapstructure:"dsn"`
}

// StreamConfig configures the websocket event broadcaster.
type StreamConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Addr    string `toml:"addr" mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("owner", "venue-owner")
	v.SetDefault("orderbook_escrow", "orderbook-escrow")
	v.SetDefault("incentive_escrow", "incentive-escrow")
	v.SetDefault("fee_collector", "fee-collector")
	v.SetDefault("usdt_asset", "usdt")
	v.SetDefault("trading_fee_bps", 25)

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.path", "./sekex-data")

	v.SetDefault("audit.driver", "sqlite")
	v.SetDefault("audit.dsn", "./sekex-audit.db")

	v.SetDefault("eventstream.enabled", false)
	v.SetDefault("eventstream.addr", ":8765")
}

// Load reads configuration from, in priority order: built-in defaults,
// the file at configPath (if non-empty and present), then SEKEX_
// prefixed environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
			}
		}
	}

	v.SetEnvPrefix("SEKEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func validate(c *Config) error {
	if c.Owner == "" {
		return fmt.Errorf("owner must be non-empty")
	}
	if c.TradingFeeBps < 0 || c.TradingFeeBps > 100 {
		return fmt.Errorf("trading_fee_bps must be in [0, 100]")
	}
	switch c.Storage.Backend {
	case "memory", "pebble", "leveldb":
	default:
		return fmt.Errorf("storage.backend must be memory, pebble, or leveldb, got %q", c.Storage.Backend)
	}
	switch c.Audit.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("audit.driver must be sqlite or postgres, got %q", c.Audit.Driver)
	}
	return nil
}
