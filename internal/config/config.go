// Package config loads settings from defaults, an optional YAML file, a
// .env file and LEDGERSYNC_* environment variables, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/simonvc/ledgersync/internal/ledger"
)

const EnvPrefix = "LEDGERSYNC"

type Config struct {
	Mode      string          `mapstructure:"mode"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Store     StoreConfig     `mapstructure:"store"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Sequence  SequenceConfig  `mapstructure:"sequence"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// URL is where CLI commands reach a running server.
	URL string `mapstructure:"url"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// StoreConfig picks the backend for sequence counters and sync keys.
type StoreConfig struct {
	Backend    string `mapstructure:"backend"`
	BadgerPath string `mapstructure:"badger_path"`
}

type LedgerConfig struct {
	BaseCurrency string `mapstructure:"base_currency"`
}

type InventoryConfig struct {
	// Transport is none, http or kafka.
	Transport string        `mapstructure:"transport"`
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Brokers   []string      `mapstructure:"brokers"`
	Topic     string        `mapstructure:"topic"`
}

type SyncConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	AutoPost          bool     `mapstructure:"auto_post"`
	PostedBy          string   `mapstructure:"posted_by"`
	DefaultWarehouse  string   `mapstructure:"default_warehouse"`
	InventoryAccounts []string `mapstructure:"inventory_accounts"`
}

type SequenceConfig struct {
	EntryPrefix  string `mapstructure:"entry_prefix"`
	DisplayScope string `mapstructure:"display_scope"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("server.addr", ":8888")
	v.SetDefault("server.url", "http://localhost:8888")
	v.SetDefault("database.path", "ledger.db")
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.badger_path", "ledgersync.badger")
	v.SetDefault("ledger.base_currency", "USD")
	v.SetDefault("inventory.transport", "none")
	v.SetDefault("inventory.url", "http://localhost:8090")
	v.SetDefault("inventory.timeout", 10*time.Second)
	v.SetDefault("inventory.brokers", []string{"localhost:9092"})
	v.SetDefault("inventory.topic", "inventory.movements")
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.auto_post", false)
	v.SetDefault("sync.posted_by", "ledgersync")
	v.SetDefault("sync.default_warehouse", "")
	v.SetDefault("sync.inventory_accounts", []string{"1200"})
	v.SetDefault("sequence.entry_prefix", "JE")
	v.SetDefault("sequence.display_scope", "GJ")
}

// Load reads configuration. path may be empty, in which case a
// ledgersync.yaml in the working directory is used when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("ledgersync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var ErrInvalidConfig = errors.New("invalid config")

func (c *Config) Validate() error {
	if !ledger.ValidCurrency(c.Ledger.BaseCurrency) {
		return fmt.Errorf("%w: ledger.base_currency %q is not one of %s",
			ErrInvalidConfig, c.Ledger.BaseCurrency, strings.Join(ledger.CurrencyCodes(), ", "))
	}
	switch c.Store.Backend {
	case "sqlite", "badger":
	default:
		return fmt.Errorf("%w: store.backend must be sqlite or badger, got %q", ErrInvalidConfig, c.Store.Backend)
	}
	switch c.Inventory.Transport {
	case "none", "http", "kafka":
	default:
		return fmt.Errorf("%w: inventory.transport must be none, http or kafka, got %q", ErrInvalidConfig, c.Inventory.Transport)
	}
	if c.Inventory.Transport == "kafka" && len(c.Inventory.Brokers) == 0 {
		return fmt.Errorf("%w: inventory.brokers is empty", ErrInvalidConfig)
	}
	return nil
}
