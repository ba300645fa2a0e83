package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Database       DatabaseConfig       `yaml:"database"`
	Server         ServerConfig         `yaml:"server"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
	LeaderElection LeaderElectionConfig `yaml:"leader_election"`
	Discord        DiscordConfig        `yaml:"discord"`
	Auction        AuctionConfig        `yaml:"auction"`
	Lang           LangConfig           `yaml:"lang"`
	Economy        EconomyConfig        `yaml:"economy"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlx" (Postgres) or "gorm" (SQLite)
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the SQLite database file used by the gorm driver.
	Path string `yaml:"path"`
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
}

// LeaderElectionConfig holds Kubernetes leader election settings.
type LeaderElectionConfig struct {
	Enabled        bool          `yaml:"enabled"`
	LeaseName      string        `yaml:"lease_name"`
	LeaseNamespace string        `yaml:"lease_namespace"`
	LeaseDuration  time.Duration `yaml:"lease_duration"`
	RenewDeadline  time.Duration `yaml:"renew_deadline"`
	RetryPeriod    time.Duration `yaml:"retry_period"`
}

// DiscordConfig holds settings for the Discord sales feed.
type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// AuctionConfig holds auction house settings.
type AuctionConfig struct {
	MenuTitle   string       `yaml:"menu_title"`
	DefaultType string       `yaml:"default_type"`
	Types       []TypeConfig `yaml:"types"`
}

// TypeConfig groups materials into one auction type.
type TypeConfig struct {
	Name      string   `yaml:"name"`
	Materials []string `yaml:"materials"`
}

// LangConfig holds the player-facing strings. Templates may contain the
// %price% and %player% placeholders.
type LangConfig struct {
	SellTitle     string `yaml:"sell_title"`
	BuyTitle      string `yaml:"buy_title"`
	NoPrice       string `yaml:"no_price"`
	PricePerUnit  string `yaml:"price_per_unit"`
	SoldBy        string `yaml:"sold_by"`
	UnknownPlayer string `yaml:"unknown_player"`
}

// EconomyConfig holds currency display settings.
type EconomyConfig struct {
	CurrencySingular string `yaml:"currency_singular"`
	CurrencyPlural   string `yaml:"currency_plural"`
	Decimals         int32  `yaml:"decimals"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:  "gorm",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Path:    "auction.db",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "auctionhouse",
			ServiceVersion: "0.1.0",
		},
		LeaderElection: LeaderElectionConfig{
			Enabled:        false,
			LeaseName:      "auctionhouse-leader",
			LeaseNamespace: "default",
			LeaseDuration:  15 * time.Second,
			RenewDeadline:  10 * time.Second,
			RetryPeriod:    2 * time.Second,
		},
		Auction: AuctionConfig{
			MenuTitle:   "Auction House",
			DefaultType: "general",
		},
		Lang: LangConfig{
			SellTitle:     "Sell",
			BuyTitle:      "Buy",
			NoPrice:       "No price set up yet!",
			PricePerUnit:  "%price% p.u.",
			SoldBy:        "Sold by %player%",
			UnknownPlayer: "???",
		},
		Economy: EconomyConfig{
			CurrencySingular: "coin",
			CurrencyPlural:   "coins",
			Decimals:         2,
		},
	}
}

// Load reads a YAML configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlx", "gorm":
		// valid
	default:
		return fmt.Errorf("unsupported database driver %q: must be \"sqlx\" or \"gorm\"", c.Database.Driver)
	}
	if c.Database.Driver == "gorm" && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for the gorm driver")
	}
	if c.Auction.MenuTitle == "" {
		return fmt.Errorf("auction.menu_title must not be empty")
	}
	if c.Auction.DefaultType == "" {
		return fmt.Errorf("auction.default_type must not be empty")
	}

	seen := make(map[string]string)
	for _, t := range c.Auction.Types {
		if t.Name == "" {
			return fmt.Errorf("auction type without a name")
		}
		for _, m := range t.Materials {
			if prev, ok := seen[m]; ok {
				return fmt.Errorf("material %q listed in both %q and %q", m, prev, t.Name)
			}
			seen[m] = t.Name
		}
	}

	if c.Discord.Enabled && (c.Discord.Token == "" || c.Discord.ChannelID == "") {
		return fmt.Errorf("discord feed enabled without token or channel_id")
	}
	if c.Economy.Decimals < 0 {
		return fmt.Errorf("economy.decimals must not be negative")
	}
	return nil
}
