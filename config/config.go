// Package config loads the server configuration from the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/MKhansa067/HHPCalc/costing"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Restock  RestockConfig
	Costing  CostingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	// Path is a SQLite file path or ":memory:".
	Path string

	// SeedDemoData fills an empty catalog and generates demo sales on start.
	SeedDemoData bool
}

type LogConfig struct {
	Level string
}

// RestockConfig holds scheduler-related settings.
type RestockConfig struct {
	// CronSchedule is a five-field cron expression. Empty disables the check.
	CronSchedule string
	Timezone     string
	Horizon      int
}

// CostingConfig holds the defaults applied when a request omits them.
type CostingConfig struct {
	DefaultMarginPercent decimal.Decimal
	MonthlyProduction    int
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	horizon, err := getenvInt("FORECAST_HORIZON", 7)
	if err != nil {
		return nil, err
	}
	defaults := costing.DefaultParams()
	production, err := getenvInt("MONTHLY_PRODUCTION", defaults.MonthlyProduction)
	if err != nil {
		return nil, err
	}
	margin, err := decimal.NewFromString(getenvWithDefault("DEFAULT_MARGIN_PERCENT", defaults.MarginPercent.String()))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_MARGIN_PERCENT: %w", err)
	}
	seed, err := strconv.ParseBool(getenvWithDefault("SEED_DEMO_DATA", "false"))
	if err != nil {
		return nil, fmt.Errorf("SEED_DEMO_DATA: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("PORT", "8080"),
			AllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		},
		Database: DatabaseConfig{
			Path:         getenvWithDefault("DB_PATH", "hpp.db"),
			SeedDemoData: seed,
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Restock: RestockConfig{
			CronSchedule: getenvAllowEmpty("RESTOCK_CRON", "0 6 * * *"),
			Timezone:     os.Getenv("TIMEZONE"),
			Horizon:      horizon,
		},
		Costing: CostingConfig{
			DefaultMarginPercent: margin,
			MonthlyProduction:    production,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and in range.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("PORT must be provided")
	}
	if c.Database.Path == "" {
		return errors.New("DB_PATH must be provided")
	}
	if c.Restock.Horizon <= 0 {
		return errors.New("FORECAST_HORIZON must be positive")
	}
	if c.Restock.Timezone != "" {
		if _, err := time.LoadLocation(c.Restock.Timezone); err != nil {
			return fmt.Errorf("TIMEZONE: %w", err)
		}
	}
	if c.Costing.MonthlyProduction < 0 {
		return errors.New("MONTHLY_PRODUCTION must not be negative")
	}
	m := c.Costing.DefaultMarginPercent
	if m.IsNegative() || m.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return errors.New("DEFAULT_MARGIN_PERCENT must be in [0, 100)")
	}

	return nil
}

// Location returns the business time zone, local time when unset. The
// scheduler reads its cron expression in it, and sales are bucketed into
// days in it.
func (c RestockConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getenvAllowEmpty distinguishes an unset variable from one set to "".
func getenvAllowEmpty(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
