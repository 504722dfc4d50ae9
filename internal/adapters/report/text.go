package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samirrijal/relief/internal/core/domain"
)

// tableHeader is fixed regardless of language.
const tableHeader = "Longitude\tElevation (m)"

type labels struct {
	heading                      string
	total, mountain, hill, plain string
}

var labelSets = map[string]labels{
	"en": {
		heading:  "Final results:",
		total:    "Total area",
		mountain: "Mountain area",
		hill:     "Hill area",
		plain:    "Plain area",
	},
	"es": {
		heading:  "Resultados finales:",
		total:    "Área total",
		mountain: "Área de Montañas",
		hill:     "Área de Cerros",
		plain:    "Área de Planicies",
	},
}

// Text writes tables and summaries as plain text. Plots are not rendered.
type Text struct {
	w io.Writer
	l labels
}

// NewText creates a text reporter. lang is "en" or "es"; anything else falls
// back to English.
func NewText(w io.Writer, lang string) *Text {
	l, ok := labelSets[strings.ToLower(lang)]
	if !ok {
		l = labelSets["en"]
	}
	return &Text{w: w, l: l}
}

// Table prints one "longitude<TAB>elevation" row per point.
func (t *Text) Table(points []domain.ProfilePoint) error {
	var b strings.Builder
	b.WriteString(tableHeader + "\n")
	for _, p := range points {
		fmt.Fprintf(&b, "%.5f\t%s\n", p.Lon, formatNumber(p.Elevation))
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// Summary prints the four area totals.
func (t *Text) Summary(tally domain.AreaTally) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", t.l.heading)
	fmt.Fprintf(&b, "%s: %s km²\n", t.l.total, formatNumber(tally.Total))
	fmt.Fprintf(&b, "%s: %s km²\n", t.l.mountain, formatNumber(tally.Mountain))
	fmt.Fprintf(&b, "%s: %s km²\n", t.l.hill, formatNumber(tally.Hill))
	fmt.Fprintf(&b, "%s: %s km²\n", t.l.plain, formatNumber(tally.Plain))
	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Text) ProfilePlot(domain.Profile) error { return nil }
func (t *Text) ShapePlot(domain.Region) error    { return nil }

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
