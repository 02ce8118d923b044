// Package config loads the cbd settings from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/storage"
	"github.com/spf13/viper"
)

// Config keys.
const (
	KeyLogLevel       = "logging.level"
	KeyLogFormat      = "logging.format"
	KeyDatabaseDriver = "database.driver"
	KeyDatabaseDSN    = "database.dsn"
	KeyFactorEncoding = "factors.encoding"
	KeyCurrency       = "report.currency"
	KeyCurrencySymbol = "report.symbol"
)

// DefaultCurrency is the simoleon currency code used in budget reports.
const DefaultCurrency = "SIM"

// Config holds the resolved settings.
type Config struct {
	LogLevel       string
	LogFormat      string
	DatabaseDriver string
	DatabaseDSN    string
	Currency       string
	CurrencySymbol string
	FactorEncoding algorithm.FactorEncoding
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyDatabaseDriver, storage.DriverSQLite)
	v.SetDefault(KeyDatabaseDSN, "~/.local/share/cbd/cities.db")
	v.SetDefault(KeyFactorEncoding, string(algorithm.EncodingRational))
	v.SetDefault(KeyCurrency, DefaultCurrency)
	v.SetDefault(KeyCurrencySymbol, "§")
}

// Load resolves and validates the configuration held by v.
// It follows this precedence:
// 1. Viper configuration (from config file, flags or CBD_ env vars)
// 2. DATABASE_URL for a postgres DSN
// 3. Default values
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, fmt.Errorf("%w: no configuration source", common.ErrMissingConfig)
	}
	SetDefaults(v)

	cfg := Config{
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:      strings.ToLower(v.GetString(KeyLogFormat)),
		DatabaseDriver: strings.ToLower(v.GetString(KeyDatabaseDriver)),
		DatabaseDSN:    v.GetString(KeyDatabaseDSN),
		Currency:       strings.ToUpper(v.GetString(KeyCurrency)),
		CurrencySymbol: v.GetString(KeyCurrencySymbol),
	}

	if _, err := common.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, cfg.LogFormat)
	}

	encoding, err := algorithm.ParseFactorEncoding(v.GetString(KeyFactorEncoding))
	if err != nil {
		return Config{}, err
	}
	cfg.FactorEncoding = encoding

	switch cfg.DatabaseDriver {
	case storage.DriverSQLite:
		cfg.DatabaseDSN = ExpandPath(cfg.DatabaseDSN)
	case storage.DriverPostgres:
		// The default DSN is a sqlite path.
		if strings.HasPrefix(cfg.DatabaseDSN, "~") {
			cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("%w: database driver %q", common.ErrInvalidConfig, cfg.DatabaseDriver)
	}
	if strings.TrimSpace(cfg.DatabaseDSN) == "" {
		return Config{}, fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabaseDSN)
	}

	if len(cfg.Currency) != 3 {
		return Config{}, fmt.Errorf("%w: currency code %q", common.ErrInvalidConfig, cfg.Currency)
	}

	return cfg, nil
}

// ExpandPath expands a leading ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" || path == ":memory:" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}
