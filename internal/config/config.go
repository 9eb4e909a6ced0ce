package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds the auction server configuration
type Config struct {
	ServerAddress   string        `mapstructure:"SERVER_ADDRESS"`
	StorageDriver   string        `mapstructure:"STORAGE_DRIVER"`
	DBPath          string        `mapstructure:"DB_PATH"`
	MinIncrement    int64         `mapstructure:"MIN_INCREMENT"`
	SweepSchedule   string        `mapstructure:"SWEEP_SCHEDULE"`
	SeedCatalog     string        `mapstructure:"SEED_CATALOG"`
	SeedOnStart     bool          `mapstructure:"SEED_ON_START"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	BcryptCost      int           `mapstructure:"BCRYPT_COST"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_ADDRESS":   ":8080",
	"STORAGE_DRIVER":   DriverSQLite,
	"DB_PATH":          "./data/carz_auctions.db",
	"MIN_INCREMENT":    1000,
	"SWEEP_SCHEDULE":   "@every 30s",
	"SEED_CATALOG":     "",
	"SEED_ON_START":    true,
	"RATE_LIMIT_RPS":   5,
	"RATE_LIMIT_BURST": 10,
	"LOG_LEVEL":        "info",
	"BCRYPT_COST":      10,
	"SHUTDOWN_TIMEOUT": "10s",
}

// LoadConfig reads app.env from path if present, then lets environment variables override it
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot start with
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StorageDriver == DriverSQLite && c.DBPath == "" {
		return errors.New("config: DB_PATH is required for the sqlite driver")
	}
	if c.MinIncrement < 0 {
		return errors.New("config: MIN_INCREMENT must not be negative")
	}
	if c.ServerAddress == "" {
		return errors.New("config: SERVER_ADDRESS is required")
	}
	return nil
}
