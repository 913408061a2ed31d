package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/tmreport/internal/config"
	"github.com/nao1215/tmreport/internal/database"
)

// noFindingsMessage is shown for revisions without threats.
const noFindingsMessage = "No threats"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [name]",
		Short: "List rendered revisions stored in the history database",
		Long: `History lists threat models recorded with 'tmreport render --save'.

Without arguments it lists every stored threat model. With a name (the input
file name without extension) it lists that model's revisions, newest first.

Examples:
  # List stored threat models
  tmreport history

  # List revisions of threatmodel.yaml
  tmreport history threatmodel

  # Print the document stored in revision 3
  tmreport history --show 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("show", "s", 0,
		"Print the stored document of a revision by ID")
	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of revisions to list (0 lists all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
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
	w := cmd.OutOrStdout()

	switch {
	case showID > 0:
		return showRevision(ctx, w, db, showID)
	case len(args) == 1:
		return listRevisions(ctx, w, db, args[0], limit)
	default:
		return listReports(ctx, w, db)
	}
}

// listReports lists every stored threat model with its revision count.
func listReports(ctx context.Context, w io.Writer, db *database.HistoryDB) error {
	names, err := db.ListReports(ctx)
	if err != nil {
		return fmt.Errorf("failed to list threat models: %w", err)
	}

	if len(names) == 0 {
		fmt.Fprintln(w, "No threat models found in the history database.")
		fmt.Fprintln(w, "\nUse 'tmreport render --save <file>' to record a revision.")
		return nil
	}

	fmt.Fprintf(w, "Threat models (%d):\n\n", len(names))
	for _, name := range names {
		revisions, err := db.ListRevisions(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to list revisions of %s: %w", name, err)
		}
		fmt.Fprintf(w, "  • %s (%d revisions)\n", name, len(revisions))
	}
	fmt.Fprintln(w, "\nUse 'tmreport history <name>' to see the revisions of a threat model.")
	return nil
}

// listRevisions lists the revisions of one threat model, newest first.
func listRevisions(ctx context.Context, w io.Writer, db *database.HistoryDB, name string, limit int) error {
	revisions, err := db.ListRevisions(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to list revisions: %w", err)
	}

	if len(revisions) == 0 {
		fmt.Fprintf(w, "No revisions found for %s\n", name)
		return nil
	}
	total := len(revisions)
	if limit > 0 && limit < total {
		revisions = revisions[:limit]
	}

	fmt.Fprintf(w, "Revisions of %s (%d):\n\n", name, total)
	fmt.Fprintf(w, "  %-6s  %-20s  %-9s  %-6s  %s\n", "ID", "Date", "Format", "Score", "Threats")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 64))
	for _, rev := range revisions {
		fmt.Fprintf(w, "  %-6d  %-20s  %-9s  %-6d  %s\n",
			rev.ID,
			rev.CreatedAt.Format("2006-01-02 15:04:05"),
			rev.Format,
			rev.RiskScore,
			formatRiskSummary(rev.RiskSummary),
		)
	}

	fmt.Fprintf(w, "\nUse 'tmreport compare %s' to compare the latest two revisions.\n", name)
	return nil
}

// showRevision prints the stored document of one revision.
func showRevision(ctx context.Context, w io.Writer, db *database.HistoryDB, id int64) error {
	rev, err := db.GetRevision(ctx, id)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rev.Output)
	return err
}

// formatRiskSummary formats the severity counts of a revision.
func formatRiskSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["warning"]; v > 0 {
		parts = append(parts, fmt.Sprintf("W:%d", v))
	}
	if v := summary["info"]; v > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", v))
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}
