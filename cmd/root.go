package cmd

import (
	"fmt"

	"github.com/abhisek/teacherbean/internal/config"
	"github.com/abhisek/teacherbean/internal/logger"
	"github.com/abhisek/teacherbean/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "teacherbean",
	Short:        "Item bank and test paper assembly for language teachers",
	Long:         "TeacherBean: import test items into a local bank and assemble papers that degrade gracefully when the bank runs short.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database path or DSN (overrides TEACHERBEAN_DB env var)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment and applies the --db flag on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.ConfigFromEnv()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DSN = p
	}
	return cfg, cfg.Validate()
}

// resolveDSN returns the database DSN using --db flag (highest priority),
// then TEACHERBEAN_DB env var, then the default XDG path for SQLite.
func resolveDSN(cfg config.Config) (string, error) {
	if cfg.DBDriver != config.DriverSQLite {
		return cfg.DSN, nil
	}
	if cfg.DSN != "" {
		return cfg.DSN, store.EnsureDir(cfg.DSN)
	}
	return store.DefaultDBPath()
}

// env bundles what every data command needs. Call close when done.
type env struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
}

func (e *env) close() {
	e.store.Close()
	e.log.Sync()
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	dsn, err := resolveDSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(cmd.Context(), cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Debug("store opened", "driver", cfg.DBDriver)
	return &env{cfg: cfg, log: log.With("cmd", cmd.Name()), store: s}, nil
}
