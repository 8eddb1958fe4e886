// Package analyze walks a repository tree, classifies files through the
// language registry, and accumulates per-language line tallies.
package analyze

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/petrarca/repolang/internal/registry"
	"golang.org/x/sync/errgroup"
)

// ErrNotDirectory is returned when the aggregation root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// DefaultMaxFileSize skips files larger than 10MB (likely generated or
// minified).
const DefaultMaxFileSize = 10 * 1024 * 1024

// DefaultIgnoreDirs are directory names excluded from every scan. The set
// covers version-control metadata, dependency trees, build output, IDE
// state, and caches. Config may extend it.
var DefaultIgnoreDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "vendor", "venv", ".venv", "env", ".env",
	".cache", ".pytest_cache", "__pycache__", ".egg-info",
	"build", "dist", "target", "out", ".gradle",
	".idea", ".vscode", ".DS_Store",
	"coverage", ".nyc_output",
	"bin", "obj", "logs", "tmp", "temp",
	"release", "releases",
	".github", ".gitlab", ".bitbucket",
	".conda", ".mypy_cache", ".ruff_cache", ".tox",
	"debug", "debug-info", "debug-symbols",
	"bower_components", "jspm_packages",
}

// DefaultIgnoreFiles are exact file names excluded from every scan,
// chiefly lock files and editor droppings.
var DefaultIgnoreFiles = []string{
	".DS_Store", "Thumbs.db", ".gitignore", ".gitattributes",
	"package-lock.json", "yarn.lock", "poetry.lock", "Gemfile.lock",
	"Cargo.lock", "composer.lock",
}

// Tally accumulates file and raw line counts for one language during a
// single aggregation pass. Weighted lines are always derived as
// Lines * weight from the registry, so the weight invariant holds after
// every merge by construction.
type Tally struct {
	Files int   `json:"files" msgpack:"files"`
	Lines int64 `json:"lines" msgpack:"lines"`
}

// Result maps a language display name to its tally for one repository
// snapshot. Immutable once produced; this is the unit that is cached.
type Result map[string]Tally

// TotalFiles returns the number of classified files across all languages.
func (r Result) TotalFiles() int {
	total := 0
	for _, t := range r {
		total += t.Files
	}
	return total
}

// TotalLines returns the raw line total across all languages.
func (r Result) TotalLines() int64 {
	var total int64
	for _, t := range r {
		total += t.Lines
	}
	return total
}

// FileAnalyzer receives every classified file during aggregation. Used to
// feed the optional code statistics collector without coupling the walk to
// it. Implementations must be safe for concurrent calls.
type FileAnalyzer interface {
	ProcessFile(path, language string)
}

// Options control one aggregation pass.
type Options struct {
	// ExtraIgnoreDirs and ExtraIgnoreFiles extend the default exclusion
	// sets.
	ExtraIgnoreDirs  []string
	ExtraIgnoreFiles []string

	// ExcludePatterns are doublestar globs matched against the path
	// relative to the root and against the bare file name.
	ExcludePatterns []string

	// MaxFileSize in bytes; files above it count as zero lines.
	// Zero means DefaultMaxFileSize.
	MaxFileSize int64

	// Jobs is the number of classify/count workers; zero means NumCPU.
	Jobs int

	// Stats, when non-nil, is fed every classified file.
	Stats FileAnalyzer
}

type fileCount struct {
	lang  string
	lines int64
}

// Aggregate scans the tree under root and returns per-language tallies.
// Unclassified files are skipped entirely. Files that produce zero lines
// (empty, unreadable, or over the size cutoff) contribute nothing, not
// even a file count. Per-file read errors never abort the scan; only a
// root that cannot be enumerated is an error.
func Aggregate(ctx context.Context, root string, reg *registry.Registry, opts Options) (Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot enumerate %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", absRoot, ErrNotDirectory)
	}

	ignoreDirs := toSet(DefaultIgnoreDirs, opts.ExtraIgnoreDirs)
	ignoreFiles := toSet(DefaultIgnoreFiles, opts.ExtraIgnoreFiles)

	maxSize := opts.MaxFileSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	paths := make(chan string, 256)
	counts := make(chan fileCount, 256)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(paths)
		return walkTree(ctx, absRoot, ignoreDirs, ignoreFiles, opts.ExcludePatterns, paths)
	})

	var workers sync.WaitGroup
	for i := 0; i < jobs; i++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for p := range paths {
				lang, ok := reg.Classify(filepath.Base(p))
				if !ok {
					continue
				}
				if opts.Stats != nil {
					opts.Stats.ProcessFile(p, lang)
				}
				lines := countLines(p, maxSize)
				if lines == 0 {
					continue
				}
				select {
				case counts <- fileCount{lang: lang, lines: lines}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		workers.Wait()
		close(counts)
	}()

	result := make(Result)
	for fc := range counts {
		t := result[fc.lang]
		t.Files++
		t.Lines += fc.lines
		result[fc.lang] = t
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// walkTree enumerates candidate regular files under root onto paths.
func walkTree(ctx context.Context, root string, ignoreDirs, ignoreFiles map[string]struct{}, patterns []string, paths chan<- string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == root {
				return fmt.Errorf("cannot enumerate %s: %w", root, err)
			}
			return nil // unreadable subtree contributes nothing
		}

		name := d.Name()
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = name
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p == root {
				return nil
			}
			if _, skip := ignoreDirs[name]; skip {
				return fs.SkipDir
			}
			if matchAny(patterns, name, rel) {
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if _, skip := ignoreFiles[name]; skip {
			return nil
		}
		if matchAny(patterns, name, rel) {
			return nil
		}

		select {
		case paths <- p:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// matchAny checks doublestar patterns against both the relative path and
// the bare name, mirroring gitignore-style matching.
func matchAny(patterns []string, name, rel string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

// countLines counts newline-terminated segments in a file. Trailing
// content without a final newline still counts as one line. Any read
// failure yields zero, which the caller treats as no contribution.
func countLines(path string, maxSize int64) int64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return 0
	}
	if info.Size() > maxSize {
		return 0
	}

	buf := make([]byte, 256*1024)
	var lines int64
	var last byte
	for {
		n, err := f.Read(buf)
		if n > 0 {
			lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0
		}
	}

	if last != '\n' {
		lines++
	}
	return lines
}

func toSet(base, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(base)+len(extra))
	for _, s := range base {
		set[s] = struct{}{}
	}
	for _, s := range extra {
		set[s] = struct{}{}
	}
	return set
}
