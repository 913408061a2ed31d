package report

import (
	"strconv"

	"github.com/nao1215/tmreport/internal/model"
)

// StatusGlyph returns the symbol shown for a control status.
// Every known status maps to exactly one glyph.
func StatusGlyph(status model.ControlStatus) string {
	switch status {
	case model.StatusImplemented:
		return "✅"
	case model.StatusPartial:
		return "⚠️"
	case model.StatusMissing:
		return "❌"
	default:
		return "?"
	}
}

// SeverityMarker returns the colored dot used in summaries.
func SeverityMarker(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "🔴"
	case model.SeverityWarning:
		return "🟠"
	case model.SeverityInfo:
		return "🔵"
	default:
		return "⚪"
	}
}

// severityIndicator is the ASCII marker used by the text renderer.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "[!!!]"
	case model.SeverityWarning:
		return "[!]"
	default:
		return "[i]"
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
