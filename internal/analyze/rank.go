package analyze

import (
	"errors"
	"sort"

	"github.com/petrarca/repolang/internal/registry"
)

// ErrEmptyResult is returned when ranking a result with no classified
// languages. Callers report "no recognized source files" rather than
// treating it as a fault.
var ErrEmptyResult = errors.New("no recognized source files")

// Weighted returns the ranking score for a language: raw lines multiplied
// by the registry weight. Weighting affects ranking only, never the
// displayed percentage.
func Weighted(r Result, reg *registry.Registry, lang string) float64 {
	return float64(r[lang].Lines) * reg.Weight(lang)
}

// SortedNames orders languages by descending weighted lines, breaking ties
// by descending file count and then ascending name. The order is total, so
// repeated runs on unchanged input always agree.
func SortedNames(r Result, reg *registry.Registry) []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		wi, wj := Weighted(r, reg, names[i]), Weighted(r, reg, names[j])
		if wi != wj {
			return wi > wj
		}
		if r[names[i]].Files != r[names[j]].Files {
			return r[names[i]].Files > r[names[j]].Files
		}
		return names[i] < names[j]
	})

	return names
}

// Primary selects the repository's primary language from aggregated
// tallies.
func Primary(r Result, reg *registry.Registry) (string, Tally, error) {
	if len(r) == 0 {
		return "", Tally{}, ErrEmptyResult
	}
	name := SortedNames(r, reg)[0]
	return name, r[name], nil
}

// Percent returns a language's share of the raw line total, in percent.
func Percent(r Result, lang string) float64 {
	total := r.TotalLines()
	if total == 0 {
		return 0
	}
	return float64(r[lang].Lines) / float64(total) * 100
}
