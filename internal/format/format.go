// Package format renders aggregation results as a table, a JSON document,
// or a single primary-language line.
package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/petrarca/repolang/internal/analyze"
	"github.com/petrarca/repolang/internal/codestats"
	"github.com/petrarca/repolang/internal/registry"
)

// Mode selects which line counts the table shows.
type Mode string

const (
	ModeRaw      Mode = "raw"
	ModeWeighted Mode = "weighted"
	ModeBoth     Mode = "both"
)

// EmptyMessage is printed when no source files were recognized.
const EmptyMessage = "No recognized source files found."

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	totalStyle  = lipgloss.NewStyle().Bold(true)
)

// Tally is the per-language JSON shape. Files and Lines are raw values;
// weighted lines are a ranking artifact exposed for completeness.
type Tally struct {
	Files         int     `json:"files"`
	Lines         int64   `json:"lines"`
	WeightedLines float64 `json:"weighted_lines"`
}

// Report is the JSON output document.
type Report struct {
	PrimaryLanguage string           `json:"primary_language"`
	PrimaryGlyph    string           `json:"primary_glyph"`
	Stats           map[string]Tally `json:"stats"`
}

// BuildReport assembles the JSON report from an aggregation result.
func BuildReport(result analyze.Result, reg *registry.Registry, primary, glyph string) Report {
	stats := make(map[string]Tally, len(result))
	for lang, t := range result {
		stats[lang] = Tally{
			Files:         t.Files,
			Lines:         t.Lines,
			WeightedLines: analyze.Weighted(result, reg, lang),
		}
	}
	return Report{
		PrimaryLanguage: primary,
		PrimaryGlyph:    glyph,
		Stats:           stats,
	}
}

// PrimaryLine renders the lightweight single-line output used for shell
// prompt integration.
func PrimaryLine(name, glyph, prefix string, withGlyph bool) string {
	out := name
	if withGlyph && glyph != "" {
		out = glyph + " " + name
	}
	return prefix + out
}

// Table writes the per-language breakdown. Percentages always come from
// raw lines regardless of mode; weighting affects row order and the
// weighted column only.
func Table(w io.Writer, result analyze.Result, reg *registry.Registry, mode Mode, withGlyph, styled bool) {
	if len(result) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}

	const langWidth, filesWidth, numWidth = 18, 8, 12

	var header string
	switch mode {
	case ModeBoth:
		header = fmt.Sprintf("%-*s %-*s %*s %*s %s", langWidth, "Language", filesWidth, "Files", numWidth, "Lines", numWidth, "Weighted", "%")
	case ModeWeighted:
		header = fmt.Sprintf("%-*s %-*s %*s %s", langWidth, "Language", filesWidth, "Files", numWidth, "Weighted", "%")
	default:
		header = fmt.Sprintf("%-*s %-*s %*s %s", langWidth, "Language", filesWidth, "Files", numWidth, "Lines", "%")
	}
	tableWidth := len(header) + 4

	writeRule(w, "=", tableWidth)
	fmt.Fprintln(w, style(titleStyle, "Repository Language Analysis", styled))
	writeRule(w, "=", tableWidth)
	fmt.Fprintln(w, style(headerStyle, header, styled))
	writeRule(w, "-", tableWidth)

	totalLines := result.TotalLines()
	var totalWeighted float64

	for _, lang := range analyze.SortedNames(result, reg) {
		t := result[lang]
		weighted := analyze.Weighted(result, reg, lang)
		totalWeighted += weighted

		display := lang
		if withGlyph {
			if glyph := reg.Glyph(lang); glyph != "" {
				display = glyph + " " + lang
			}
		}

		pct := analyze.Percent(result, lang)
		switch mode {
		case ModeBoth:
			fmt.Fprintf(w, "%-*s %-*d %*s %*s %4.1f%%\n",
				langWidth, display, filesWidth, t.Files,
				numWidth, comma(t.Lines), numWidth, comma(int64(weighted)), pct)
		case ModeWeighted:
			fmt.Fprintf(w, "%-*s %-*d %*s %4.1f%%\n",
				langWidth, display, filesWidth, t.Files,
				numWidth, comma(int64(weighted)), pct)
		default:
			fmt.Fprintf(w, "%-*s %-*d %*s %4.1f%%\n",
				langWidth, display, filesWidth, t.Files,
				numWidth, comma(t.Lines), pct)
		}
	}

	writeRule(w, "-", tableWidth)

	var totalRow string
	switch mode {
	case ModeBoth:
		totalRow = fmt.Sprintf("%-*s %-*d %*s %*s %4.1f%%",
			langWidth, "TOTAL", filesWidth, result.TotalFiles(),
			numWidth, comma(totalLines), numWidth, comma(int64(totalWeighted)), 100.0)
	case ModeWeighted:
		totalRow = fmt.Sprintf("%-*s %-*d %*s %4.1f%%",
			langWidth, "TOTAL", filesWidth, result.TotalFiles(),
			numWidth, comma(int64(totalWeighted)), 100.0)
	default:
		totalRow = fmt.Sprintf("%-*s %-*d %*s %4.1f%%",
			langWidth, "TOTAL", filesWidth, result.TotalFiles(),
			numWidth, comma(totalLines), 100.0)
	}
	fmt.Fprintln(w, style(totalStyle, totalRow, styled))
	writeRule(w, "=", tableWidth)
}

// DetailedTable writes the scc-based code statistics breakdown.
func DetailedTable(w io.Writer, langs []codestats.Stats, styled bool) {
	if len(langs) == 0 {
		return
	}

	header := fmt.Sprintf("%-18s %-12s %-8s %10s %10s %10s %10s %10s",
		"Language", "Type", "Files", "Lines", "Code", "Comments", "Blanks", "Complexity")
	tableWidth := len(header)

	fmt.Fprintln(w)
	writeRule(w, "=", tableWidth)
	fmt.Fprintln(w, style(titleStyle, "Code Statistics", styled))
	writeRule(w, "=", tableWidth)
	fmt.Fprintln(w, style(headerStyle, header, styled))
	writeRule(w, "-", tableWidth)

	for _, s := range langs {
		fmt.Fprintf(w, "%-18s %-12s %-8d %10s %10s %10s %10s %10s\n",
			s.Language, s.Type, s.Files,
			comma(s.Lines), comma(s.Code), comma(s.Comments), comma(s.Blanks), comma(s.Complexity))
	}
	writeRule(w, "=", tableWidth)
}

func style(s lipgloss.Style, text string, styled bool) string {
	if !styled {
		return text
	}
	return s.Render(text)
}

func writeRule(w io.Writer, ch string, width int) {
	fmt.Fprintln(w, strings.Repeat(ch, width))
}

// comma formats an integer with thousands separators.
func comma(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
