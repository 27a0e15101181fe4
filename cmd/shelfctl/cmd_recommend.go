// Shelfrank - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shelfrank/internal/app"
	"github.com/tomtom215/shelfrank/internal/recommend"
)

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Compute recommendations",
	}
	cmd.PersistentFlags().Int("limit", 0, "Number of results (0 uses the configured default)")

	cmd.AddCommand(
		newRecommendSubCmd("personalized", "Recommendations for one reader", []string{"user"},
			func(ctx context.Context, e *recommend.Engine, f flagValues, limit int) []recommend.Result {
				return e.Personalized(ctx, f["user"], limit)
			}),
		newRecommendSubCmd("category", "Recommendations within one category", []string{"user", "category"},
			func(ctx context.Context, e *recommend.Engine, f flagValues, limit int) []recommend.Result {
				return e.Category(ctx, f["user"], f["category"], limit)
			}),
		newRecommendSubCmd("similar", "Books similar to an anchor book", []string{"book"},
			func(ctx context.Context, e *recommend.Engine, f flagValues, limit int) []recommend.Result {
				return e.Similar(ctx, f["book"], f["user"], limit)
			}),
		newRecommendSubCmd("trending", "Books with recent download activity", nil,
			func(ctx context.Context, e *recommend.Engine, _ flagValues, limit int) []recommend.Result {
				return e.Trending(ctx, limit)
			}),
	)
	return cmd
}

// flagValues holds the ID flags of a recommend subcommand.
type flagValues map[string]int64

type recommendFunc func(ctx context.Context, e *recommend.Engine, f flagValues, limit int) []recommend.Result

var idFlagUsage = map[string]string{
	"user":     "Reader ID",
	"category": "Category ID",
	"book":     "Anchor book ID",
}

// newRecommendSubCmd builds one mode. Required flags must be positive;
// similar also accepts an optional --user.
func newRecommendSubCmd(mode, short string, required []string, run recommendFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   mode,
		Short: short,
		Args:  cobra.NoArgs,
	}

	flags := required
	if mode == "similar" {
		flags = append([]string{"user"}, required...)
	}
	for _, name := range flags {
		cmd.Flags().Int64(name, 0, idFlagUsage[name])
	}
	for _, name := range required {
		_ = cmd.MarkFlagRequired(name)
	}

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		values := flagValues{}
		for _, name := range flags {
			v, _ := cmd.Flags().GetInt64(name)
			values[name] = v
		}
		for _, name := range required {
			if values[name] <= 0 {
				return errors.New("--" + name + " must be a positive integer")
			}
		}
		if values["user"] < 0 {
			return errors.New("--user must not be negative")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return withStack(cmd, cfg, func(ctx context.Context, s *app.Stack) error {
			results := run(ctx, s.Engine, values, limit)
			if results == nil {
				results = []recommend.Result{}
			}
			return writeJSON(cmd.OutOrStdout(), results)
		})
	}
	return cmd
}
