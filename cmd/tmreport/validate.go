package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nao1215/tmreport/internal/input"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate file...",
		Short: "Check threat model files without rendering",
		Long: `Validate loads each threat model and reports every problem found.

A threat model is valid when it has at least one component, every control
has a name and a known status (Implemented, Partial, Missing), and every
threat has a description and a known severity (Info, Warning, Critical).

The command exits with a non-zero status if any file is invalid.

Examples:
  tmreport validate threatmodel.yaml
  tmreport validate models/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args)
		},
	}
}

// runValidate checks every path and prints one line per file followed by
// its problems.
func runValidate(w io.Writer, paths []string) error {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()

	invalid := 0
	for _, path := range paths {
		_, err := input.Load(path)
		if err == nil {
			fmt.Fprintf(w, "%s %s\n", ok("✓"), path)
			continue
		}

		invalid++
		fmt.Fprintf(w, "%s %s\n", bad("✗"), path)
		for _, problem := range problems(path, err) {
			fmt.Fprintf(w, "    - %s\n", problem)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d threat models are invalid", invalid, len(paths))
	}
	return nil
}

// problems splits a load error into one line per violation, without the
// file path prefix.
func problems(path string, err error) []string {
	var lines []string
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimPrefix(line, path+": ")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
