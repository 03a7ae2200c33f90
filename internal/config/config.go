package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds process-wide settings for the teacherbean CLI.
type Config struct {
	// DBDriver selects the storage backend.
	// Values: "sqlite", "postgres"
	DBDriver string

	// DSN is the SQLite file path or Postgres connection string. Empty
	// means the default data path (SQLite only).
	DSN string

	// LogMode is passed to logger.New. Values: "dev", "prod", "off".
	LogMode string

	// Seed makes item selection reproducible. Zero picks a fresh random
	// order on every run.
	Seed uint64

	// EmergencyLimit caps the last-resort selection. Default: 10.
	EmergencyLimit int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DBDriver:       DriverSQLite,
		LogMode:        "off",
		EmergencyLimit: 10,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values. Malformed numbers are reported rather than
// ignored; call Validate once any flag overrides are applied.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if d := os.Getenv("TEACHERBEAN_DB_DRIVER"); d != "" {
		cfg.DBDriver = strings.ToLower(strings.TrimSpace(d))
	}
	if dsn := os.Getenv("TEACHERBEAN_DB"); dsn != "" {
		cfg.DSN = dsn
	}
	if m := os.Getenv("TEACHERBEAN_LOG_MODE"); m != "" {
		cfg.LogMode = m
	}

	if s := os.Getenv("TEACHERBEAN_SEED"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("TEACHERBEAN_SEED: %w", err)
		}
		cfg.Seed = seed
	}
	if s := os.Getenv("TEACHERBEAN_EMERGENCY_LIMIT"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Config{}, fmt.Errorf("TEACHERBEAN_EMERGENCY_LIMIT: %w", err)
		}
		cfg.EmergencyLimit = n
	}

	return cfg, nil
}

// Validate checks that the driver is known and the settings are usable.
func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("TEACHERBEAN_DB is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver: %q", c.DBDriver)
	}
	if c.EmergencyLimit <= 0 {
		return fmt.Errorf("emergency limit must be positive, got %d", c.EmergencyLimit)
	}
	return nil
}
