package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/nao1215/tmreport/internal/model"
)

// ruleWidth is the width of the section separators.
const ruleWidth = 70

// TextRenderer renders threat models as plain text for terminals.
//
// Design decision: Colors are off by default so output can be piped or
// stored. When enabled, each color is forced on explicitly rather than
// following terminal detection, which keeps the output a pure function of
// the input and options.
type TextRenderer struct {
	color   bool
	summary bool
	footer  string
}

// TextOption configures a TextRenderer.
type TextOption func(*TextRenderer)

// WithColor enables ANSI colors for severities and statuses.
func WithColor(enabled bool) TextOption {
	return func(r *TextRenderer) {
		r.color = enabled
	}
}

// WithTextSummary adds a severity count section after the title.
func WithTextSummary(enabled bool) TextOption {
	return func(r *TextRenderer) {
		r.summary = enabled
	}
}

// WithTextFooter appends a footer line.
func WithTextFooter(text string) TextOption {
	return func(r *TextRenderer) {
		r.footer = text
	}
}

// NewTextRenderer creates a TextRenderer.
func NewTextRenderer(opts ...TextOption) *TextRenderer {
	r := &TextRenderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the text document in the same section order as the
// Markdown renderer.
func (r *TextRenderer) Render(report *model.ThreatModelReport) (string, error) {
	if err := report.Validate(); err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(center(strings.ToUpper(report.DisplayTitle()), ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	if r.summary {
		r.writeSummary(&sb, report)
	}

	if overview := strings.TrimSpace(report.SystemOverview); overview != "" {
		r.writeHeading(&sb, "SYSTEM OVERVIEW")
		sb.WriteString(overview)
		sb.WriteString("\n\n")
	}

	r.writeList(&sb, "ASSUMPTIONS", report.Assumptions)
	r.writeList(&sb, "COMPONENTS", report.Components)

	if len(report.Boundaries) > 0 {
		r.writeHeading(&sb, "TRUST BOUNDARIES")
		for _, b := range report.Boundaries {
			fmt.Fprintf(&sb, "  - %s", flatten(b.Name))
			if len(b.Components) > 0 {
				members := make([]string, len(b.Components))
				for i, c := range b.Components {
					members[i] = flatten(c)
				}
				fmt.Fprintf(&sb, ": %s", strings.Join(members, ", "))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(report.DataAssets) > 0 {
		r.writeHeading(&sb, "DATA ASSETS")
		for _, a := range report.DataAssets {
			fmt.Fprintf(&sb, "  - %s [%s]", flatten(a.Name), a.Classification.Label())
			if d := flatten(a.Description); d != "" {
				fmt.Fprintf(&sb, " - %s", d)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(report.Dataflows) > 0 {
		r.writeHeading(&sb, "DATA FLOWS")
		for _, f := range report.Dataflows {
			fmt.Fprintf(&sb, "  %s -> %s: %s\n", flatten(f.Source), flatten(f.Destination), flatten(f.Description))
		}
		sb.WriteString("\n")
	}

	if len(report.Controls) > 0 {
		r.writeHeading(&sb, "SECURITY CONTROLS")
		for _, c := range report.Controls {
			fmt.Fprintf(&sb, "  %s %s", r.statusText(c.Status), flatten(c.Name))
			if d := flatten(c.Description); d != "" {
				fmt.Fprintf(&sb, " - %s", d)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(report.Threats) > 0 {
		r.writeHeading(&sb, "THREATS")
		for _, t := range report.Threats {
			fmt.Fprintf(&sb, "  %s %s\n", r.severityText(t.Severity), flatten(t.Description))
		}
		sb.WriteString("\n")
	}

	r.writeList(&sb, "RECOMMENDATIONS", report.Recommendations)

	if r.footer != "" {
		sb.WriteString(strings.Repeat("-", ruleWidth))
		sb.WriteString("\n")
		sb.WriteString(r.footer)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func (r *TextRenderer) writeHeading(sb *strings.Builder, title string) {
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", runewidth.StringWidth(title)))
	sb.WriteString("\n")
}

func (r *TextRenderer) writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	r.writeHeading(sb, title)
	for _, item := range items {
		fmt.Fprintf(sb, "  - %s\n", flatten(item))
	}
	sb.WriteString("\n")
}

func (r *TextRenderer) writeSummary(sb *strings.Builder, report *model.ThreatModelReport) {
	summary := report.Summarize()
	r.writeHeading(sb, "RISK SUMMARY")
	for i := len(model.Severities) - 1; i >= 0; i-- {
		sev := model.Severities[i]
		fmt.Fprintf(sb, "  %-10s %d\n", sev.String()+":", summary.BySeverity[sev])
	}
	fmt.Fprintf(sb, "  %-10s %d\n\n", "TOTAL:", summary.TotalThreats())
}

// severityText returns the indicator and label, colored when enabled.
func (r *TextRenderer) severityText(severity model.Severity) string {
	text := severityIndicator(severity) + " " + severity.String() + ":"
	switch severity {
	case model.SeverityCritical:
		return r.paint(text, color.FgRed, color.Bold)
	case model.SeverityWarning:
		return r.paint(text, color.FgYellow)
	default:
		return r.paint(text, color.FgCyan)
	}
}

func (r *TextRenderer) statusText(status model.ControlStatus) string {
	text := StatusGlyph(status) + " [" + status.Label() + "]"
	switch status {
	case model.StatusImplemented:
		return r.paint(text, color.FgGreen)
	case model.StatusPartial:
		return r.paint(text, color.FgYellow)
	default:
		return r.paint(text, color.FgRed)
	}
}

func (r *TextRenderer) paint(text string, attrs ...color.Attribute) string {
	if !r.color {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// center pads s with leading spaces to center it within width columns.
// Width is measured in terminal cells, so wide CJK runes count twice.
func center(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return strings.Repeat(" ", (width-w)/2) + s
}
