package pipeline

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assessment-cli/internal/model"
)

// Format selects how a report is presented.
type Format string

const (
	// FormatText is a single rendered text block.
	FormatText Format = "text"
	// FormatGrouped nests items under phase then category.
	FormatGrouped Format = "grouped"
	// FormatPhase lists items under their phase with no category level.
	FormatPhase Format = "phase"
)

// ParseFormat validates a format name. Empty selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatGrouped, FormatPhase:
		return f, nil
	}
	return "", eris.Errorf("unknown report format %q", s)
}

// ReportHeader opens every text report.
const ReportHeader = "Based on your assessment results, here are your business recommendations:\n\n"

// RenderText renders the report as plain text. Every canonical phase gets a
// heading, even when it holds no items.
func RenderText(r *model.PhaseReport) string {
	var b strings.Builder
	b.WriteString(ReportHeader)
	for _, p := range model.CanonicalPhases {
		b.WriteString("=== " + p.Title() + " ===\n")
		for pair := r.Categories(p).Oldest(); pair != nil; pair = pair.Next() {
			b.WriteString("\n[" + pair.Key + "]\n")
			for _, it := range pair.Value {
				b.WriteString("- " + it.Question + "\n  " + it.Result.Display() + "\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Render returns the report in the requested format: a string for
// FormatText, otherwise an ordered map ready for JSON encoding.
func Render(r *model.PhaseReport, f Format) any {
	switch f {
	case FormatGrouped:
		return r.Grouped()
	case FormatPhase:
		return r.ByPhase()
	}
	return RenderText(r)
}
