// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfrank/internal/app"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load a JSON fixture into the catalog",
		Long: `Load categories, books, readers, favorites and downloads from a JSON
fixture. Existing rows with the same IDs are replaced.

Examples:
  shelfctl seed catalog.json --db /data/shelfrank.duckdb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// The fixture given here is the one to load.
			cfg.Database.SeedFile = ""

			return withStack(cmd, cfg, func(ctx context.Context, s *app.Stack) error {
				res, err := s.Store.LoadSeedFile(ctx, args[0])
				if err != nil {
					return fmt.Errorf("seed %s: %w", args[0], err)
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}
