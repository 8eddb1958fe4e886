// Package codestats provides optional per-language code statistics
// (code, comments, blanks, complexity) on top of the raw line tallies.
package codestats

import (
	"bytes"
	"os"
	"sort"
	"sync"

	"github.com/boyter/scc/v3/processor"
	"github.com/go-enry/go-enry/v2"
)

var initOnce sync.Once

// Stats holds accumulated statistics for one language.
type Stats struct {
	Language   string `json:"language"`
	Type       string `json:"type"`
	Files      int    `json:"files"`
	Lines      int64  `json:"lines"`
	Code       int64  `json:"code"`
	Comments   int64  `json:"comments"`
	Blanks     int64  `json:"blanks"`
	Complexity int64  `json:"complexity"`
}

// Analyzer aggregates scc statistics for classified files. Safe for
// concurrent ProcessFile calls from aggregation workers. A nil or disabled
// analyzer ignores every file.
type Analyzer struct {
	mu         sync.Mutex
	enabled    bool
	byLanguage map[string]*Stats
}

// NewAnalyzer creates an analyzer; when enabled is false every call is a
// no-op with zero cost.
func NewAnalyzer(enabled bool) *Analyzer {
	return &Analyzer{
		enabled:    enabled,
		byLanguage: make(map[string]*Stats),
	}
}

// IsEnabled reports whether the analyzer collects anything.
func (a *Analyzer) IsEnabled() bool {
	return a != nil && a.enabled
}

// ProcessFile analyzes one file and adds its statistics under the given
// language (the registry's display name, used for grouping). Files scc
// cannot parse still contribute line and file counts. Read failures are
// ignored; the file simply contributes nothing.
func (a *Analyzer) ProcessFile(path, language string) {
	if !a.IsEnabled() || language == "" {
		return
	}

	content, err := os.ReadFile(path)
	if err != nil || len(content) == 0 {
		return
	}

	initOnce.Do(processor.ProcessConstants)

	sccLangs, _ := processor.DetectLanguage(path)
	sccLang := ""
	if len(sccLangs) > 0 {
		sccLang = sccLangs[0]
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stats, ok := a.byLanguage[language]
	if !ok {
		stats = &Stats{Language: language, Type: LanguageType(language)}
		a.byLanguage[language] = stats
	}
	stats.Files++

	if sccLang == "" {
		// scc cannot parse this file; count raw lines only.
		lines := int64(bytes.Count(content, []byte{'\n'}))
		if content[len(content)-1] != '\n' {
			lines++
		}
		stats.Lines += lines
		return
	}

	job := &processor.FileJob{
		Filename: path,
		Language: sccLang,
		Content:  content,
		Bytes:    int64(len(content)),
	}
	processor.CountStats(job)

	stats.Lines += job.Lines
	stats.Code += job.Code
	stats.Comments += job.Comment
	stats.Blanks += job.Blank
	stats.Complexity += job.Complexity
}

// Languages returns per-language statistics sorted by descending lines,
// then ascending name.
func (a *Analyzer) Languages() []Stats {
	if a == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	result := make([]Stats, 0, len(a.byLanguage))
	for _, stats := range a.byLanguage {
		result = append(result, *stats)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Lines != result[j].Lines {
			return result[i].Lines > result[j].Lines
		}
		return result[i].Language < result[j].Language
	})
	return result
}

// LanguageType maps a language name to its GitHub Linguist type
// (programming, data, markup, prose).
func LanguageType(language string) string {
	switch enry.GetLanguageType(language) {
	case enry.Programming:
		return "programming"
	case enry.Data:
		return "data"
	case enry.Markup:
		return "markup"
	case enry.Prose:
		return "prose"
	default:
		return "unknown"
	}
}
