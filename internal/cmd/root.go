package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "repolang",
	Short: "Primary language detector for repositories",
	Long: `Repolang detects the primary programming language of a git repository
by classifying files against its language definitions and ranking the
weighted line counts.

Results are cached per repository revision, so repeated invocations on an
unchanged tree are cheap enough for shell prompt integration.`,
	Version: "1.3.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
