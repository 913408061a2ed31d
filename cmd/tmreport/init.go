package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/tmreport/internal/config"
)

//go:embed templates/*.yaml
var templates embed.FS

// Embedded template paths.
const (
	threatModelTemplate = "templates/threatmodel.yaml"
	projectTemplate     = "templates/tmreport.yaml"
)

// defaultThreatModelFile is the file written by init without --project.
const defaultThreatModelFile = "threatmodel.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example threat model or project configuration",
		Long: `Init writes a commented example threat model to start from.

The generated threat model includes:
- A system overview and assumptions
- Components in architecture order
- Security controls with each status (Implemented, Partial, Missing)
- Threats with each severity (Info, Warning, Critical)
- Recommendations

With --project, init writes a .tmreport project configuration instead,
which sets render defaults and per-file overrides.

Examples:
  # Create threatmodel.yaml in the current directory
  tmreport init

  # Create the threat model at a specific path
  tmreport init -o models/payments.yaml

  # Create .tmreport project configuration
  tmreport init --project

  # Force overwrite existing file
  tmreport init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Output file path (default: threatmodel.yaml, or .tmreport with --project)")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing file")
	cmd.Flags().BoolP("project", "p", false,
		"Write a project configuration file instead of a threat model")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	project, err := cmd.Flags().GetBool("project")
	if err != nil {
		return err
	}

	template := threatModelTemplate
	if project {
		template = projectTemplate
	}
	if outputPath == "" {
		outputPath = defaultThreatModelFile
		if project {
			outputPath = config.DefaultConfigFile
		}
	}

	if err := writeTemplate(template, outputPath, force); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created %s\n", outputPath)
	if project {
		fmt.Fprintln(w, "\nEdit this file to set render defaults such as:")
		fmt.Fprintln(w, "  - Output format and risk summary")
		fmt.Fprintln(w, "  - Footer text")
		fmt.Fprintln(w, "  - Per-file overrides")
		return nil
	}
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  tmreport validate %s\n", outputPath)
	fmt.Fprintf(w, "  tmreport render %s\n", outputPath)
	return nil
}

// writeTemplate copies an embedded template to outputPath.
func writeTemplate(template, outputPath string, force bool) error {
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := templates.ReadFile(template)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Threat models describe weaknesses, so keep them owner-only.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
