package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/cache"
)

func newCacheCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the analysis cache",
		Long: `Manage the analysis cache.

The cache stores dataset characteristics, recommendations and insight reports
keyed by the dataset's contents, so repeated runs on an unchanged file skip
the analysis.`,
	}

	cmd.AddCommand(newCacheClearCommand(a))

	return cmd
}

func newCacheClearCommand(a *app) *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the analysis cache",
		Long: `Clear all cached analysis results.

The next run will re-analyze every dataset from scratch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cacheDir
			if dir == "" {
				dir = a.config().Cache.Dir
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving cache directory: %w", err)
			}

			c := cache.New(absDir)
			if err := c.Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory to clear (default: cache.dir from .slmgen.yaml)")

	return cmd
}
