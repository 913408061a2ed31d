package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/tmreport/internal/config"
	"github.com/nao1215/tmreport/internal/database"
	"github.com/nao1215/tmreport/internal/model"
)

// NewCompareCmd creates the compare command.
// This command compares revisions of a threat model stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare name",
		Short: "Compare revisions of a threat model",
		Long: `Compare displays what changed between two revisions of a threat model.

It shows:
- New threats and resolved threats
- Controls whose status changed, and controls added or removed
- Components added or removed
- Whether the weighted risk score worsened or improved

By default the latest two revisions are compared. Use 'tmreport render --save'
to record revisions and 'tmreport history <name>' to list them.

Examples:
  # Compare the latest two revisions
  tmreport compare threatmodel

  # Compare the latest revision with revision 3
  tmreport compare -r 3 threatmodel

  # Output the comparison as JSON
  tmreport compare --json threatmodel`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().Int64P("with-revision", "r", 0,
		"Compare the latest revision with this revision ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	withID, err := cmd.Flags().GetInt64("with-revision")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := compareRevisions(ctx, db, args[0], withID)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return outputComparisonJSON(w, result)
	case markdownOutput:
		return outputComparisonMarkdown(w, result)
	default:
		return outputComparisonText(w, result)
	}
}

// ComparisonResult is a comparison together with the revisions it covers.
type ComparisonResult struct {
	Name     string       `json:"name"`
	Previous RevisionInfo `json:"previous"`
	Current  RevisionInfo `json:"current"`

	*model.Comparison
}

// RevisionInfo identifies one side of a comparison.
type RevisionInfo struct {
	ID          int64          `json:"id"`
	RevisionID  string         `json:"revision_id"`
	CreatedAt   time.Time      `json:"created_at"`
	RiskSummary map[string]int `json:"risk_summary"`
}

func revisionInfo(rev *database.Revision) RevisionInfo {
	return RevisionInfo{
		ID:          rev.ID,
		RevisionID:  rev.RevisionID,
		CreatedAt:   rev.CreatedAt,
		RiskSummary: rev.RiskSummary,
	}
}

// compareRevisions loads the revisions to compare and diffs them.
// The latest revision is always the current one.
func compareRevisions(ctx context.Context, db *database.HistoryDB, name string, withID int64) (*ComparisonResult, error) {
	latest, err := db.LatestRevisions(ctx, name, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to load revisions: %w", err)
	}
	if len(latest) == 0 {
		return nil, fmt.Errorf("no revisions found for %s", name)
	}

	current := latest[0]
	var previous *database.Revision

	if withID > 0 {
		previous, err = db.GetRevision(ctx, withID)
		if err != nil {
			return nil, fmt.Errorf("failed to load revision %d: %w", withID, err)
		}
		if previous.Name != name {
			return nil, fmt.Errorf("revision %d belongs to %s, not %s", withID, previous.Name, name)
		}
	} else {
		if len(latest) < 2 {
			return nil, errors.New("at least 2 revisions are required for comparison (found 1)")
		}
		previous = latest[1]
	}

	return &ComparisonResult{
		Name:       name,
		Previous:   revisionInfo(previous),
		Current:    revisionInfo(current),
		Comparison: model.Compare(previous.Report, current.Report),
	}, nil
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(w)

	md.H1("Threat Model Comparison: " + result.Name)
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")
	md.PlainTextf("**Risk Status:** %s", formatRiskDirection(result.RiskDirection))
	md.PlainText("")

	rows := [][]string{
		{"Revision", strconv.FormatInt(result.Previous.ID, 10), strconv.FormatInt(result.Current.ID, 10), "-"},
		{"Date", result.Previous.CreatedAt.Format("2006-01-02 15:04"), result.Current.CreatedAt.Format("2006-01-02 15:04"), "-"},
	}
	for _, c := range severityCounts(result) {
		rows = append(rows, []string{c.label, strconv.Itoa(c.previous), strconv.Itoa(c.current), formatDelta(c.current - c.previous)})
	}
	rows = append(rows, []string{
		"**Risk Score**",
		"**" + strconv.Itoa(result.PreviousScore) + "**",
		"**" + strconv.Itoa(result.CurrentScore) + "**",
		"**" + formatDelta(result.CurrentScore-result.PreviousScore) + "**",
	})
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(result.NewThreats) > 0 {
		md.H2(fmt.Sprintf("New Threats (%d)", len(result.NewThreats)))
		md.PlainText("")
		md.BulletList(threatLines(result.NewThreats, "**[%s]** %s")...)
		md.PlainText("")
	}

	if len(result.ResolvedThreats) > 0 {
		md.H2(fmt.Sprintf("Resolved Threats (%d)", len(result.ResolvedThreats)))
		md.PlainText("")
		md.BulletList(threatLines(result.ResolvedThreats, "~~**[%s]** %s~~")...)
		md.PlainText("")
	}

	if changes := controlLines(result.Comparison); len(changes) > 0 {
		md.H2("Control Changes")
		md.PlainText("")
		md.BulletList(changes...)
		md.PlainText("")
	}

	if components := componentLines(result.Comparison); len(components) > 0 {
		md.H2("Component Changes")
		md.PlainText("")
		md.BulletList(components...)
		md.PlainText("")
	}

	if !result.HasChanges() {
		md.PlainText("*No changes between revisions.*")
	}

	return md.Build()
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(w io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(w, "Threat Model Comparison: %s\n", result.Name)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "\nRisk Status: %s\n", formatRiskDirection(result.RiskDirection))

	fmt.Fprintf(w, "\nPrevious revision: %d (%s)\n", result.Previous.ID, result.Previous.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Current revision:  %d (%s)\n", result.Current.ID, result.Current.CreatedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(w, "\nThreats Summary:")
	fmt.Fprintf(w, "  %-10s  %-10s  %-10s  %-10s\n", "Severity", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 45))
	for _, c := range severityCounts(result) {
		fmt.Fprintf(w, "  %-10s  %-10d  %-10d  %-10s\n", c.label, c.previous, c.current, formatDelta(c.current-c.previous))
	}
	fmt.Fprintln(w, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(w, "  %-10s  %-10d  %-10d  %-10s\n", "Score",
		result.PreviousScore, result.CurrentScore, formatDelta(result.CurrentScore-result.PreviousScore))

	if len(result.NewThreats) > 0 {
		fmt.Fprintf(w, "\nNew Threats (%d):\n", len(result.NewThreats))
		for _, line := range threatLines(result.NewThreats, "[+] [%s] %s") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if len(result.ResolvedThreats) > 0 {
		fmt.Fprintf(w, "\nResolved Threats (%d):\n", len(result.ResolvedThreats))
		for _, line := range threatLines(result.ResolvedThreats, "[-] [%s] %s") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if changes := controlLines(result.Comparison); len(changes) > 0 {
		fmt.Fprintln(w, "\nControl Changes:")
		for _, line := range changes {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if components := componentLines(result.Comparison); len(components) > 0 {
		fmt.Fprintln(w, "\nComponent Changes:")
		for _, line := range components {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if !result.HasChanges() {
		fmt.Fprintln(w, "\nNo changes between revisions.")
	}

	return nil
}

// severityCount is one row of the severity table.
type severityCount struct {
	label    string
	previous int
	current  int
}

// severityCounts lists counts per severity, most severe first.
func severityCounts(result *ComparisonResult) []severityCount {
	counts := make([]severityCount, 0, len(model.Severities))
	for i := len(model.Severities) - 1; i >= 0; i-- {
		sev := model.Severities[i]
		key := strings.ToLower(sev.String())
		counts = append(counts, severityCount{
			label:    sev.Label(),
			previous: result.Previous.RiskSummary[key],
			current:  result.Current.RiskSummary[key],
		})
	}
	return counts
}

// threatLines formats threats with a two-verb format of label and description.
func threatLines(threats []model.ThreatFinding, format string) []string {
	lines := make([]string, 0, len(threats))
	for _, t := range threats {
		lines = append(lines, fmt.Sprintf(format, t.Severity.Label(), t.Description))
	}
	return lines
}

// controlLines describes added, removed, and changed controls.
func controlLines(c *model.Comparison) []string {
	var lines []string
	for _, sc := range c.StatusChanges {
		lines = append(lines, fmt.Sprintf("%s: %s -> %s", sc.Control, sc.Previous.Label(), sc.Current.Label()))
	}
	for _, ctl := range c.AddedControls {
		lines = append(lines, fmt.Sprintf("added %s (%s)", ctl.Name, ctl.Status.Label()))
	}
	for _, ctl := range c.RemovedControls {
		lines = append(lines, fmt.Sprintf("removed %s", ctl.Name))
	}
	return lines
}

// componentLines describes added and removed components.
func componentLines(c *model.Comparison) []string {
	var lines []string
	for _, name := range c.AddedComponents {
		lines = append(lines, "added "+name)
	}
	for _, name := range c.RemovedComponents {
		lines = append(lines, "removed "+name)
	}
	return lines
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction string) string {
	switch direction {
	case model.RiskImproved:
		return "IMPROVED (risk decreased)"
	case model.RiskWorsened:
		return "WORSENED (risk increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
