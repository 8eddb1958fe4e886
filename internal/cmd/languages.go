package cmd

import (
	"fmt"
	"io"
	"strings"

	"log/slog"

	"github.com/petrarca/repolang/internal/codestats"
	"github.com/petrarca/repolang/internal/registry"
	"github.com/spf13/cobra"
)

var languagesFormat string

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the loaded language definitions",
	RunE:  runLanguages,
}

func init() {
	setupFormatFlag(languagesCmd, &languagesFormat)
	rootCmd.AddCommand(languagesCmd)
}

// languageInfo is the per-language row for the languages command.
type languageInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Type       string   `json:"type" yaml:"type"`
	Extensions []string `json:"extensions" yaml:"extensions"`
	Glyph      string   `json:"glyph,omitempty" yaml:"glyph,omitempty"`
	Weight     float64  `json:"weight" yaml:"weight"`
}

type languagesOutput struct {
	Languages []languageInfo `json:"languages" yaml:"languages"`
}

func (o *languagesOutput) ToJSON() interface{} { return o }

func (o *languagesOutput) ToText(w io.Writer) {
	fmt.Fprintf(w, "%-18s %-12s %-8s %-8s %s\n", "Language", "Type", "Glyph", "Weight", "Extensions")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, lang := range o.Languages {
		fmt.Fprintf(w, "%-18s %-12s %-8s %-8.2f %s\n",
			lang.Name, lang.Type, lang.Glyph, lang.Weight, strings.Join(lang.Extensions, " "))
	}
	fmt.Fprintf(w, "\n%d languages\n", len(o.Languages))
}

func runLanguages(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	reg, err := registry.Load(slog.Default())
	if err != nil {
		return err
	}

	out := &languagesOutput{}
	for _, def := range reg.Definitions() {
		out.Languages = append(out.Languages, languageInfo{
			Name:       def.Name,
			Type:       codestats.LanguageType(def.Name),
			Extensions: def.Extensions,
			Glyph:      def.Glyph,
			Weight:     def.Weight,
		})
	}

	Output(out, languagesFormat)
	return nil
}
