// Package registry loads language definitions and classifies files by
// filename and extension.
package registry

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"log/slog"

	"github.com/petrarca/repolang/internal/validation"
	"gopkg.in/yaml.v3"
)

//go:embed definitions/*.yaml
var definitionsFS embed.FS

const definitionSchema = "language-definition.json"

// ConfigError reports a language definition that failed to load.
// It is always recovered locally: the definition is skipped, never fatal.
type ConfigError struct {
	File string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid language definition %s: %v", e.File, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Definition describes one language as loaded from its YAML file.
type Definition struct {
	Name       string   `yaml:"name" json:"name"`
	Extensions []string `yaml:"extensions" json:"extensions"`
	Glyph      string   `yaml:"glyph" json:"glyph,omitempty"`
	Weight     float64  `yaml:"weight" json:"weight"`
}

// nameOverrides maps canonical identifiers whose display name does not
// title-case cleanly.
var nameOverrides = map[string]string{
	"c-sharp":     "C#",
	"f-sharp":     "F#",
	"c-plus-plus": "C++",
	"objective-c": "Objective-C",
}

// Registry holds the loaded definitions plus reverse lookup maps for O(1)
// classification. Immutable after Load; safe for concurrent use.
type Registry struct {
	definitions map[string]Definition
	extensions  map[string]string // ".py" -> "Python"
	filenames   map[string]string // "Makefile" -> "Makefile"
}

// Load builds a registry from the embedded definition files.
func Load(logger *slog.Logger) (*Registry, error) {
	return LoadFS(definitionsFS, "definitions", logger)
}

// LoadFS builds a registry from definition files under dir in fsys.
// Files load in lexicographic name order; on extension or filename
// collision the last-loaded definition wins. Definitions whose file stem
// begins with an uppercase character are reserved for templates and
// skipped. A malformed definition is logged and skipped; an empty registry
// is a valid result.
func LoadFS(fsys fs.FS, dir string, logger *slog.Logger) (*Registry, error) {
	reg := &Registry{
		definitions: make(map[string]Definition),
		extensions:  make(map[string]string),
		filenames:   make(map[string]string),
	}

	var files []string
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(p, ".yaml") && !strings.HasSuffix(p, ".yml") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk language definitions: %w", err)
	}

	// fs.WalkDir visits entries in lexical order already; sorting keeps the
	// collision policy explicit rather than incidental.
	sort.Strings(files)

	for _, file := range files {
		stem := strings.TrimSuffix(strings.TrimSuffix(path.Base(file), ".yaml"), ".yml")
		if stem == "" || (stem[0] >= 'A' && stem[0] <= 'Z') {
			continue // reserved for templates/examples
		}

		def, err := loadDefinition(fsys, file, stem)
		if err != nil {
			if logger != nil {
				logger.Warn("Skipping language definition", "file", file, "error", err)
			}
			continue
		}

		reg.register(def, logger)
	}

	return reg, nil
}

func loadDefinition(fsys fs.FS, file, stem string) (Definition, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return Definition{}, &ConfigError{File: file, Err: err}
	}

	if err := validation.ValidateYAML(definitionSchema, content); err != nil {
		return Definition{}, &ConfigError{File: file, Err: err}
	}

	var def Definition
	if err := yaml.Unmarshal(content, &def); err != nil {
		return Definition{}, &ConfigError{File: file, Err: err}
	}

	if def.Name == "" {
		def.Name = displayName(stem)
	}
	if def.Weight == 0 {
		def.Weight = 1.0
	}

	return def, nil
}

func (r *Registry) register(def Definition, logger *slog.Logger) {
	r.definitions[def.Name] = def

	for _, ext := range def.Extensions {
		if strings.HasPrefix(ext, ".") {
			ext = strings.ToLower(ext)
			if prev, ok := r.extensions[ext]; ok && prev != def.Name && logger != nil {
				logger.Debug("Extension collision, last definition wins",
					"extension", ext, "previous", prev, "language", def.Name)
			}
			r.extensions[ext] = def.Name
		} else {
			if prev, ok := r.filenames[ext]; ok && prev != def.Name && logger != nil {
				logger.Debug("Filename collision, last definition wins",
					"filename", ext, "previous", prev, "language", def.Name)
			}
			r.filenames[ext] = def.Name
		}
	}
}

// displayName derives a display name from a canonical identifier.
// Identifiers that do not case-convert cleanly come from nameOverrides.
func displayName(stem string) string {
	if name, ok := nameOverrides[stem]; ok {
		return name
	}

	var b strings.Builder
	upper := true
	for _, c := range stem {
		switch {
		case c == '-' || c == '_':
			b.WriteRune('-')
			upper = true
		case upper:
			b.WriteRune(toUpper(c))
			upper = false
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

func toUpper(c rune) rune {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// Classify returns the language a file belongs to. Exact-filename lookup
// takes precedence over the (case-insensitive) extension lookup. Pure, no
// I/O, safe to call from multiple workers.
func (r *Registry) Classify(filename string) (string, bool) {
	if lang, ok := r.filenames[filename]; ok {
		return lang, true
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		return "", false
	}
	lang, ok := r.extensions[ext]
	return lang, ok
}

// Weight returns the ranking multiplier for a language, 1.0 when unknown.
// Unknown names can appear when ranking a cached result produced by an
// older definition set.
func (r *Registry) Weight(name string) float64 {
	if def, ok := r.definitions[name]; ok {
		return def.Weight
	}
	return 1.0
}

// Glyph returns the display icon for a language, empty when unknown.
func (r *Registry) Glyph(name string) string {
	return r.definitions[name].Glyph
}

// Len returns the number of loaded definitions.
func (r *Registry) Len() int {
	return len(r.definitions)
}

// Definitions returns all loaded definitions sorted by display name.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
