package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/mattn/go-isatty"
	"github.com/petrarca/repolang/internal/analyze"
	"github.com/petrarca/repolang/internal/cache"
	"github.com/petrarca/repolang/internal/codestats"
	"github.com/petrarca/repolang/internal/config"
	"github.com/petrarca/repolang/internal/format"
	"github.com/petrarca/repolang/internal/git"
	"github.com/petrarca/repolang/internal/registry"
	"github.com/spf13/cobra"
)

var detectFlags struct {
	primaryOnly bool
	withGlyph   bool
	prefix      string
	jsonOut     bool
	noCache     bool
	cacheExpiry int
	weighted    bool
	all         bool
	exclude     []string
	jobs        int
	detailed    bool
	output      string
	logLevel    string
	logFormat   string
	logFile     string
}

var detectCmd = &cobra.Command{
	Use:   "detect [path]",
	Short: "Detect the primary language of a repository",
	Long: `Detect classifies every file in a git repository, aggregates line counts
per language, and reports the primary language by weighted line count.

A path that is not a git repository produces no output and exits 0, so the
command is safe to call unconditionally from a shell prompt hook.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	f := detectCmd.Flags()
	f.BoolVarP(&detectFlags.primaryOnly, "primary-only", "p", false, "Print only the primary language name")
	f.BoolVarP(&detectFlags.withGlyph, "with-glyph", "g", false, "Include the language glyph in output")
	f.StringVarP(&detectFlags.prefix, "prefix", "P", "", "Prefix for primary-only output")
	f.BoolVarP(&detectFlags.jsonOut, "json", "j", false, "Emit the result as JSON")
	f.BoolVarP(&detectFlags.noCache, "no-cache", "n", false, "Skip the cache for this invocation")
	f.IntVarP(&detectFlags.cacheExpiry, "cache-expiry", "e", 3600, "Cache expiry in seconds (0 = never expire)")
	f.BoolVarP(&detectFlags.weighted, "weighted", "w", false, "Show weighted line counts in the table")
	f.BoolVarP(&detectFlags.all, "all", "a", false, "Show both raw and weighted line counts")
	f.StringArrayVar(&detectFlags.exclude, "exclude", nil, "Glob pattern to exclude (repeatable)")
	f.IntVar(&detectFlags.jobs, "jobs", 0, "Number of parallel workers (0 = number of CPUs)")
	f.BoolVar(&detectFlags.detailed, "detailed", false, "Include code statistics (forces a fresh scan)")
	f.StringVarP(&detectFlags.output, "output", "o", "", "Write output to file instead of stdout")
	f.StringVar(&detectFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&detectFlags.logFormat, "log-format", "", "Log format: text or json")
	f.StringVar(&detectFlags.logFile, "log-file", "", "Write logs to file instead of stderr")

	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	applyDetectFlags(cmd, settings)
	logger := settings.ConfigureLogger()
	slog.SetDefault(logger)

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	// Prompt-hook contract: a plain directory is not an error, just not
	// our concern.
	if !git.IsRepo(root) {
		logger.Debug("Not a git repository, nothing to do", "path", root)
		return nil
	}

	reg, err := registry.Load(logger)
	if err != nil {
		return err
	}

	repoCache := openCache(logger)
	expiry := time.Duration(settings.CacheExpiry) * time.Second
	useCache := !settings.NoCache && !detectFlags.detailed

	var stats *codestats.Analyzer
	result, hit := analyze.Result(nil), false
	if useCache {
		result, hit = repoCache.Read(root, expiry)
		if hit {
			logger.Debug("Using cached result", "path", root)
		}
	}

	if !hit {
		opts := analyze.Options{
			ExtraIgnoreDirs:  settings.ExtraIgnoreDirs,
			ExtraIgnoreFiles: settings.ExtraIgnoreFiles,
			ExcludePatterns:  settings.ExcludePatterns,
			MaxFileSize:      settings.MaxFileSize,
			Jobs:             settings.Jobs,
		}
		if detectFlags.detailed {
			stats = codestats.NewAnalyzer(true)
			opts.Stats = stats
		}

		result, err = analyze.Aggregate(cmd.Context(), root, reg, opts)
		if err != nil {
			return err
		}
		if !settings.NoCache {
			repoCache.Write(root, result)
		}
	}

	primary := "None"
	if name, _, err := analyze.Primary(result, reg); err == nil {
		primary = name
	} else if !errors.Is(err, analyze.ErrEmptyResult) {
		return err
	}

	return writeDetectOutput(result, reg, primary, stats, settings.NoColor)
}

// applyDetectFlags folds changed flags over the layered settings; flags are
// the outermost layer.
func applyDetectFlags(cmd *cobra.Command, settings *config.Settings) {
	if cmd.Flags().Changed("no-cache") {
		settings.NoCache = detectFlags.noCache
	}
	if cmd.Flags().Changed("cache-expiry") {
		settings.CacheExpiry = detectFlags.cacheExpiry
	}
	if cmd.Flags().Changed("jobs") {
		settings.Jobs = detectFlags.jobs
	}
	if len(detectFlags.exclude) > 0 {
		settings.ExcludePatterns = append(settings.ExcludePatterns, detectFlags.exclude...)
	}
	if detectFlags.logLevel != "" {
		if level, err := config.ParseLogLevel(detectFlags.logLevel); err == nil {
			settings.LogLevel = level
		}
	}
	if detectFlags.logFormat != "" {
		settings.LogFormat = detectFlags.logFormat
	}
	if detectFlags.logFile != "" {
		settings.LogFile = detectFlags.logFile
	}
}

// openCache returns a disk-backed cache, or nil when the cache directory is
// unavailable. A nil cache misses every read and drops every write.
func openCache(logger *slog.Logger) *cache.Cache {
	store, err := cache.OpenDiskStore("repolang")
	if err != nil {
		logger.Debug("Cache unavailable, scanning fresh", "error", err)
		return nil
	}
	return cache.New(store, logger)
}

func writeDetectOutput(result analyze.Result, reg *registry.Registry, primary string, stats *codestats.Analyzer, noColor bool) error {
	styled := !noColor &&
		detectFlags.output == "" &&
		isatty.IsTerminal(os.Stdout.Fd())

	var buf bytes.Buffer
	var out io.Writer = os.Stdout
	if detectFlags.output != "" {
		out = &buf
	}

	switch {
	case detectFlags.jsonOut:
		report := format.BuildReport(result, reg, primary, reg.Glyph(primary))
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case detectFlags.primaryOnly:
		fmt.Fprintln(out, format.PrimaryLine(primary, reg.Glyph(primary), detectFlags.prefix, detectFlags.withGlyph))

	default:
		mode := format.ModeRaw
		if detectFlags.all {
			mode = format.ModeBoth
		} else if detectFlags.weighted {
			mode = format.ModeWeighted
		}
		format.Table(out, result, reg, mode, detectFlags.withGlyph, styled)
		if stats.IsEnabled() {
			format.DetailedTable(out, stats.Languages(), styled)
		}
	}

	if detectFlags.output != "" {
		if err := os.WriteFile(detectFlags.output, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", detectFlags.output)
	}
	return nil
}
