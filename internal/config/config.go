package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaniyajacobs/NewCircuit-sub000/pkg/logger"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port                          string        `mapstructure:"PORT"`
	LogLevel                      string        `mapstructure:"LOG_LEVEL"`
	DatabaseDriver                string        `mapstructure:"DATABASE_DRIVER"`
	DatabasePath                  string        `mapstructure:"DATABASE_PATH"`
	DatabaseURL                   string        `mapstructure:"DATABASE_URL"`
	TxMaxAttempts                 int           `mapstructure:"TX_MAX_ATTEMPTS"`
	TxBackoff                     time.Duration `mapstructure:"TX_BACKOFF"`
	WaitlistScanLimit             int           `mapstructure:"WAITLIST_SCAN_LIMIT"`
	PromotionWorkers              int           `mapstructure:"PROMOTION_WORKERS"`
	PromotionQueueSize            int           `mapstructure:"PROMOTION_QUEUE_SIZE"`
	ReconcileInterval             time.Duration `mapstructure:"RECONCILE_INTERVAL"`
	SynergyTablePath              string        `mapstructure:"SYNERGY_TABLE_PATH"`
	DirectoryURL                  string        `mapstructure:"DIRECTORY_URL"`
	DirectoryTokenURL             string        `mapstructure:"DIRECTORY_TOKEN_URL"`
	DirectoryClientID             string        `mapstructure:"DIRECTORY_CLIENT_ID"`
	DirectoryClientSecret         string        `mapstructure:"DIRECTORY_CLIENT_SECRET"`
	DirectoryTimeout              time.Duration `mapstructure:"DIRECTORY_TIMEOUT"`
	DiscordBotToken               string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string        `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	JWTSecret                     string        `mapstructure:"JWT_SECRET"`
}

// Load reads the configuration from the environment on top of the defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_PATH", "circuit.db")
	v.SetDefault("TX_MAX_ATTEMPTS", 5)
	v.SetDefault("TX_BACKOFF", 20*time.Millisecond)
	v.SetDefault("WAITLIST_SCAN_LIMIT", 25)
	v.SetDefault("PROMOTION_WORKERS", 4)
	v.SetDefault("PROMOTION_QUEUE_SIZE", 256)
	v.SetDefault("RECONCILE_INTERVAL", time.Minute)
	v.SetDefault("DIRECTORY_TIMEOUT", 2*time.Second)

	v.BindEnv("DATABASE_URL")
	v.BindEnv("SYNERGY_TABLE_PATH")
	v.BindEnv("DIRECTORY_URL")
	v.BindEnv("DIRECTORY_TOKEN_URL")
	v.BindEnv("DIRECTORY_CLIENT_ID")
	v.BindEnv("DIRECTORY_CLIENT_SECRET")
	v.BindEnv("DISCORD_BOT_TOKEN")
	v.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	v.BindEnv("JWT_SECRET")

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfig is Load for process start-up; it exits on error.
func LoadConfig() *Config {
	config, err := Load()
	if err != nil {
		logger.Get().Fatal(context.Background(), "invalid configuration", logger.Error(err))
	}
	return config
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("DATABASE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.TxMaxAttempts < 1 {
		return errors.New("TX_MAX_ATTEMPTS must be at least 1")
	}
	if c.WaitlistScanLimit < 1 {
		return errors.New("WAITLIST_SCAN_LIMIT must be at least 1")
	}
	if c.ReconcileInterval <= 0 {
		return errors.New("RECONCILE_INTERVAL must be positive")
	}
	return nil
}

// DirectoryEnabled reports whether display lookups are configured.
func (c *Config) DirectoryEnabled() bool { return c.DirectoryURL != "" }

// DiscordEnabled reports whether the discord notifier is configured.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordBotToken != "" && c.DiscordNotificationsChannelID != ""
}
