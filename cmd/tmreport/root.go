package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	tmlog "github.com/nao1215/tmreport/internal/log"
)

// Log formats accepted by --log-format.
const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// NewRootCmd creates the root command for tmreport.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tmreport",
		Short: "Render threat models into review documents",
		Long: `tmreport renders structured threat models into review documents.

A threat model lists the system's components, its security controls with
their implementation status, the identified threats with their severity, and
recommendations. tmreport validates the model and renders it as Markdown
(the default), plain text, or JSON. The same input always produces the same
document.

Use 'tmreport init' to create an example threat model to start from.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", logFormatText, "Log output format on stderr (text, json)")

	// Add subcommands
	cmd.AddCommand(NewRenderCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogFormatFlag retrieves the log format from the command or its parent.
func getLogFormatFlag(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format, err = cmd.Root().PersistentFlags().GetString("log-format")
		if err != nil {
			return logFormatText
		}
	}
	return format
}

// newLogger builds the redacting logger selected by --log-format.
func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", logFormatText:
		return tmlog.NewLogger(w, verbose), nil
	case logFormatJSON:
		return tmlog.NewJSONLogger(w, verbose), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (use %s or %s)", format, logFormatText, logFormatJSON)
	}
}
