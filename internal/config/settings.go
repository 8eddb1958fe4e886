// Package config layers settings from defaults, an optional TOML file, and
// environment variable overrides.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"log/slog"

	"github.com/BurntSushi/toml"
)

// Settings holds all analyzer configuration.
type Settings struct {
	// Cache behavior
	CacheExpiry int // seconds; 0 disables expiry
	NoCache     bool

	// Scan behavior
	ExcludePatterns  []string
	ExtraIgnoreDirs  []string
	ExtraIgnoreFiles []string
	Jobs             int   // 0 = GOMAXPROCS
	MaxFileSize      int64 // bytes; files larger than this are skipped

	// Output
	NoColor bool

	// Logging
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
	LogFile   string // Optional: write logs to file instead of stderr
}

// fileConfig mirrors Settings for TOML decoding. Pointer fields distinguish
// "absent" from zero values so the file only overrides what it sets.
type fileConfig struct {
	CacheExpiry      *int     `toml:"cache_expiry"`
	NoCache          *bool    `toml:"no_cache"`
	ExcludePatterns  []string `toml:"exclude_patterns"`
	ExtraIgnoreDirs  []string `toml:"ignore_dirs"`
	ExtraIgnoreFiles []string `toml:"ignore_files"`
	Jobs             *int     `toml:"jobs"`
	MaxFileSize      *int64   `toml:"max_file_size"`
	NoColor          *bool    `toml:"no_color"`
	LogLevel         *string  `toml:"log_level"`
	LogFormat        *string  `toml:"log_format"`
	LogFile          *string  `toml:"log_file"`
}

// DefaultSettings returns default configuration.
func DefaultSettings() *Settings {
	return &Settings{
		CacheExpiry:      3600,
		NoCache:          false,
		ExcludePatterns:  []string{},
		ExtraIgnoreDirs:  []string{},
		ExtraIgnoreFiles: []string{},
		Jobs:             0,
		MaxFileSize:      10 * 1024 * 1024,
		NoColor:          false,
		LogLevel:         slog.LevelError,
		LogFormat:        "text",
		LogFile:          "",
	}
}

// LoadSettings builds settings from defaults, then the config file, then
// environment variable overrides. A missing config file is not an error; an
// unreadable one is.
func LoadSettings() (*Settings, error) {
	settings := DefaultSettings()

	if err := settings.applyFile(configPath()); err != nil {
		return nil, err
	}
	settings.applyEnv()

	return settings, nil
}

// configPath returns the config file location: $REPOLANG_CONFIG when set,
// otherwise ~/.config/repolang/config.toml.
func configPath() string {
	if path := os.Getenv("REPOLANG_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "repolang", "config.toml")
}

func (s *Settings) applyFile(path string) error {
	if path == "" {
		return nil
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	if fc.CacheExpiry != nil {
		s.CacheExpiry = *fc.CacheExpiry
	}
	if fc.NoCache != nil {
		s.NoCache = *fc.NoCache
	}
	if fc.ExcludePatterns != nil {
		s.ExcludePatterns = fc.ExcludePatterns
	}
	if fc.ExtraIgnoreDirs != nil {
		s.ExtraIgnoreDirs = fc.ExtraIgnoreDirs
	}
	if fc.ExtraIgnoreFiles != nil {
		s.ExtraIgnoreFiles = fc.ExtraIgnoreFiles
	}
	if fc.Jobs != nil {
		s.Jobs = *fc.Jobs
	}
	if fc.MaxFileSize != nil {
		s.MaxFileSize = *fc.MaxFileSize
	}
	if fc.NoColor != nil {
		s.NoColor = *fc.NoColor
	}
	if fc.LogLevel != nil {
		if level, err := ParseLogLevel(*fc.LogLevel); err == nil {
			s.LogLevel = level
		}
	}
	if fc.LogFormat != nil {
		s.LogFormat = *fc.LogFormat
	}
	if fc.LogFile != nil {
		s.LogFile = *fc.LogFile
	}
	return nil
}

func (s *Settings) applyEnv() {
	if expiry := os.Getenv("REPOLANG_CACHE_EXPIRY"); expiry != "" {
		if n, err := strconv.Atoi(expiry); err == nil {
			s.CacheExpiry = n
		}
	}

	if noCache := os.Getenv("REPOLANG_NO_CACHE"); noCache != "" {
		s.NoCache = strings.ToLower(noCache) == "true"
	}

	if patterns := os.Getenv("REPOLANG_EXCLUDE"); patterns != "" {
		s.ExcludePatterns = splitList(patterns)
	}

	if dirs := os.Getenv("REPOLANG_IGNORE_DIRS"); dirs != "" {
		s.ExtraIgnoreDirs = splitList(dirs)
	}

	if files := os.Getenv("REPOLANG_IGNORE_FILES"); files != "" {
		s.ExtraIgnoreFiles = splitList(files)
	}

	if jobs := os.Getenv("REPOLANG_JOBS"); jobs != "" {
		if n, err := strconv.Atoi(jobs); err == nil {
			s.Jobs = n
		}
	}

	if size := os.Getenv("REPOLANG_MAX_FILE_SIZE"); size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil {
			s.MaxFileSize = n
		}
	}

	if noColor := os.Getenv("NO_COLOR"); noColor != "" {
		s.NoColor = true
	}

	if logLevel := os.Getenv("REPOLANG_LOG_LEVEL"); logLevel != "" {
		if level, err := ParseLogLevel(logLevel); err == nil {
			s.LogLevel = level
		}
	}

	if logFormat := os.Getenv("REPOLANG_LOG_FORMAT"); logFormat != "" {
		s.LogFormat = logFormat
	}

	if logFile := os.Getenv("REPOLANG_LOG_FILE"); logFile != "" {
		s.LogFile = logFile
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// ParseLogLevel converts string log level to slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// ConfigureLogger sets up the global logger based on settings
func (s *Settings) ConfigureLogger() *slog.Logger {
	var handler slog.Handler

	// Set output destination
	var output io.Writer = os.Stderr
	if s.LogFile != "" {
		file, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			// Fallback to stderr if file can't be opened
			fmt.Fprintf(os.Stderr, "Warning: Cannot open log file %s: %v\n", s.LogFile, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	// Set log format and level
	opts := &slog.HandlerOptions{
		Level: s.LogLevel,
	}

	if s.LogFormat == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
