package config

import (
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TEACHERBEAN_DB_DRIVER",
		"TEACHERBEAN_DB",
		"TEACHERBEAN_LOG_MODE",
		"TEACHERBEAN_SEED",
		"TEACHERBEAN_EMERGENCY_LIMIT",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DBDriver != DriverSQLite {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, DriverSQLite)
	}
	if cfg.EmergencyLimit != 10 {
		t.Errorf("EmergencyLimit = %d, want 10", cfg.EmergencyLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEACHERBEAN_DB_DRIVER", " Postgres ")
	t.Setenv("TEACHERBEAN_DB", "postgres://localhost/bank")
	t.Setenv("TEACHERBEAN_LOG_MODE", "prod")
	t.Setenv("TEACHERBEAN_SEED", "42")
	t.Setenv("TEACHERBEAN_EMERGENCY_LIMIT", "5")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	want := Config{
		DBDriver:       DriverPostgres,
		DSN:            "postgres://localhost/bank",
		LogMode:        "prod",
		Seed:           42,
		EmergencyLimit: 5,
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestConfigFromEnvUnsetUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestConfigFromEnvErrors(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad seed", "TEACHERBEAN_SEED", "-1"},
		{"bad limit", "TEACHERBEAN_EMERGENCY_LIMIT", "ten"},
		{"zero limit", "TEACHERBEAN_EMERGENCY_LIMIT", "0"},
		{"unknown driver", "TEACHERBEAN_DB_DRIVER", "mysql"},
		{"postgres without dsn", "TEACHERBEAN_DB_DRIVER", "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			cfg, err := ConfigFromEnv()
			if err == nil {
				err = cfg.Validate()
			}
			if err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
