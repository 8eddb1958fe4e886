package cmd

import (
	"fmt"
	"path/filepath"

	"log/slog"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached analysis results",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [path]",
	Short: "Clear cached results",
	Long: `Clear removes the cached result for one repository, or every cached
result when no path is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	repoCache := openCache(slog.Default())

	var removed int
	var err error
	if len(args) > 0 {
		root, absErr := filepath.Abs(args[0])
		if absErr != nil {
			return absErr
		}
		removed, err = repoCache.Invalidate(root)
	} else {
		removed, err = repoCache.InvalidateAll()
	}
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	switch removed {
	case 1:
		fmt.Println("Removed 1 cache entry")
	default:
		fmt.Printf("Removed %d cache entries\n", removed)
	}
	return nil
}
