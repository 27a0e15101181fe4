// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Command shelfctl seeds a shelfrank catalog and runs recommendations
// against it without starting the HTTP server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfrank/internal/api"
	"github.com/tomtom215/shelfrank/internal/app"
	"github.com/tomtom215/shelfrank/internal/config"
	"github.com/tomtom215/shelfrank/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shelfctl",
		Short: "Shelfrank catalog and recommendation tool",
		Long: `shelfctl works directly on a shelfrank DuckDB catalog.

Configuration is read the same way as the server (defaults, YAML file,
environment). The --db and --seed flags override the database settings.`,
		Version:       api.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "DuckDB path (\":memory:\" for an ephemeral catalog)")
	rootCmd.PersistentFlags().String("seed", "", "Seed fixture loaded before the command runs")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level written to stderr")

	rootCmd.AddCommand(
		newSeedCmd(),
		newRecommendCmd(),
		newStatsCmd(),
	)
	return rootCmd
}

// loadConfig applies the persistent flags on top of the layered config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.Path = db
	}
	if seed, _ := cmd.Flags().GetString("seed"); seed != "" {
		cfg.Database.SeedFile = seed
	}
	level, _ := cmd.Flags().GetString("log-level")
	logging.Init(logging.Config{
		Level:     level,
		Format:    "console",
		Timestamp: true,
		Output:    cmd.ErrOrStderr(),
	})
	return cfg, nil
}

// withStack runs fn against a freshly built stack and closes it afterwards.
func withStack(cmd *cobra.Command, cfg *config.Config, fn func(ctx context.Context, s *app.Stack) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := app.Build(ctx, cfg, logging.Logger())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("close catalog")
		}
	}()
	return fn(ctx, s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
