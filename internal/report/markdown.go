package report

import (
	"bytes"
	"io"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/tmreport/internal/model"
)

// Table headers. Tests match rendered rows against these.
var (
	controlsHeader  = []string{"Control", "Description", "Status"}
	dataAssetHeader = []string{"Data", "Classification", "Description"}
	dataflowHeader  = []string{"Source", "Destination", "Data"}
)

// MarkdownRenderer renders threat models as GitHub Flavored Markdown.
//
// Design decision: We use the nao1215/markdown library for every block,
// tables included. Its table writer does not escape cells, so values from
// the input go through escapeCell first; one control stays one row.
type MarkdownRenderer struct {
	summary bool
	footer  string
}

// MarkdownOption configures a MarkdownRenderer.
type MarkdownOption func(*MarkdownRenderer)

// WithSummary adds a risk summary section with a severity pie chart.
func WithSummary() MarkdownOption {
	return func(r *MarkdownRenderer) {
		r.summary = true
	}
}

// WithFooter appends a horizontal rule and the given text.
func WithFooter(text string) MarkdownOption {
	return func(r *MarkdownRenderer) {
		r.footer = text
	}
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer(opts ...MarkdownOption) *MarkdownRenderer {
	r := &MarkdownRenderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the Markdown document. Sections appear in a fixed order:
// title, summary (optional), system overview, assumptions, components,
// trust boundaries, data assets, data flows, security controls, threats,
// recommendations, footer (optional).
// Empty sections are omitted entirely.
func (r *MarkdownRenderer) Render(report *model.ThreatModelReport) (string, error) {
	if err := report.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1(report.DisplayTitle())
	md.PlainText("")

	if r.summary {
		r.writeSummary(md, report)
	}
	r.writeOverview(md, report)
	r.writeList(md, "Assumptions", report.Assumptions)
	r.writeList(md, "Components", report.Components)
	r.writeBoundaries(md, report.Boundaries)
	r.writeDataAssets(md, report.DataAssets)
	r.writeDataflows(md, report.Dataflows)
	r.writeControls(md, report.Controls)
	r.writeThreats(md, report.Threats)
	r.writeList(md, "Recommendations", report.Recommendations)
	r.writeFooter(md)

	if err := md.Build(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *MarkdownRenderer) writeOverview(md *markdown.Markdown, report *model.ThreatModelReport) {
	overview := strings.TrimSpace(report.SystemOverview)
	if overview == "" {
		return
	}
	md.H2("System Overview")
	md.PlainText("")
	md.PlainText(overview)
	md.PlainText("")
}

// writeList writes a heading and bullet list, or nothing for an empty list.
func (r *MarkdownRenderer) writeList(md *markdown.Markdown, title string, items []string) {
	if len(items) == 0 {
		return
	}
	bullets := make([]string, len(items))
	for i, item := range items {
		bullets[i] = flatten(item)
	}
	md.H2(title)
	md.PlainText("")
	md.BulletList(bullets...)
	md.PlainText("")
}

// writeBoundaries lists each trust boundary with the components inside it.
func (r *MarkdownRenderer) writeBoundaries(md *markdown.Markdown, boundaries []model.TrustBoundary) {
	if len(boundaries) == 0 {
		return
	}
	bullets := make([]string, len(boundaries))
	for i, b := range boundaries {
		bullets[i] = "**" + flatten(b.Name) + "**"
		if len(b.Components) > 0 {
			members := make([]string, len(b.Components))
			for j, c := range b.Components {
				members[j] = flatten(c)
			}
			bullets[i] += ": " + strings.Join(members, ", ")
		}
	}
	md.H2("Trust Boundaries")
	md.PlainText("")
	md.BulletList(bullets...)
	md.PlainText("")
}

func (r *MarkdownRenderer) writeDataAssets(md *markdown.Markdown, assets []model.DataAsset) {
	if len(assets) == 0 {
		return
	}
	rows := make([][]string, len(assets))
	for i, a := range assets {
		rows[i] = escapeRow(a.Name, a.Classification.Label(), a.Description)
	}
	md.H2("Data Assets")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: dataAssetHeader, Rows: rows})
	md.PlainText("")
}

func (r *MarkdownRenderer) writeDataflows(md *markdown.Markdown, flows []model.Dataflow) {
	if len(flows) == 0 {
		return
	}
	rows := make([][]string, len(flows))
	for i, f := range flows {
		rows[i] = escapeRow(f.Source, f.Destination, f.Description)
	}
	md.H2("Data Flows")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: dataflowHeader, Rows: rows})
	md.PlainText("")
}

func (r *MarkdownRenderer) writeControls(md *markdown.Markdown, controls []model.SecurityControl) {
	if len(controls) == 0 {
		return
	}
	rows := make([][]string, len(controls))
	for i, c := range controls {
		rows[i] = escapeRow(c.Name, c.Description, StatusGlyph(c.Status))
	}
	md.H2("Security Controls")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: controlsHeader, Rows: rows})
	md.PlainText("")
}

func (r *MarkdownRenderer) writeThreats(md *markdown.Markdown, threats []model.ThreatFinding) {
	if len(threats) == 0 {
		return
	}
	md.H2("Threats")
	md.PlainText("")
	for _, t := range threats {
		text := "**" + t.Severity.Label() + ":** " + flatten(t.Description)
		switch t.Severity {
		case model.SeverityCritical:
			md.Caution(text)
		case model.SeverityWarning:
			md.Warning(text)
		default:
			md.Note(text)
		}
		md.PlainText("")
	}
}

// writeSummary writes severity counts and, when there are threats, a pie chart.
func (r *MarkdownRenderer) writeSummary(md *markdown.Markdown, report *model.ThreatModelReport) {
	summary := report.Summarize()

	md.H2("Risk Summary")
	md.PlainText("")
	rows := make([][]string, 0, len(model.Severities)+1)
	for i := len(model.Severities) - 1; i >= 0; i-- {
		sev := model.Severities[i]
		rows = append(rows, []string{SeverityMarker(sev) + " " + sev.Label(), itoa(summary.BySeverity[sev])})
	}
	rows = append(rows, []string{"**Total**", "**" + itoa(summary.TotalThreats()) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.TotalThreats() == 0 {
		md.Tip("No threats recorded.")
		md.PlainText("")
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Threat Severity Distribution"),
		piechart.WithShowData(true),
	)
	for i := len(model.Severities) - 1; i >= 0; i-- {
		sev := model.Severities[i]
		if n := summary.BySeverity[sev]; n > 0 {
			chart.LabelAndIntValue(sev.Label(), uint64(n))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (r *MarkdownRenderer) writeFooter(md *markdown.Markdown) {
	if r.footer == "" {
		return
	}
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText(r.footer)
}

// escapeRow escapes every cell of one table row.
func escapeRow(cells ...string) []string {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = escapeCell(c)
	}
	return row
}

func escapeCell(s string) string {
	return strings.ReplaceAll(flatten(s), "|", `\|`)
}
