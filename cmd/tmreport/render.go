package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/tmreport/internal/batch"
	"github.com/nao1215/tmreport/internal/config"
	"github.com/nao1215/tmreport/internal/database"
	"github.com/nao1215/tmreport/internal/report"
)

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file...]",
		Short: "Render threat models into documents",
		Long: `Render validates threat model files (YAML or JSON) and renders them.

The Markdown document contains, in order:
- The title and an optional risk summary
- System overview and assumptions
- Components as a bullet list
- Security controls as a table with a status glyph per control
- One callout per threat, styled by severity
- Recommendations

Sections with no entries are left out. A file that fails validation produces
no output at all; the other files are still rendered.

Examples:
  # Render to stdout
  tmreport render threatmodel.yaml

  # Render with a risk summary to a file
  tmreport render --summary -o report.md threatmodel.yaml

  # Render several models into a directory as text
  tmreport render -F text -o reports/ models/*.yaml

  # Render and record the revision in the history database
  tmreport render --save threatmodel.yaml

Configuration file (.tmreport) example:
  defaults:
    summary: true
  reports:
    payments.yaml:
      footer: "Reviewed by the payments team"`,
		Args: cobra.ArbitraryArgs,
		RunE: runRenderCmd,
	}

	// Output flags
	cmd.Flags().StringP("format", "F", config.DefaultFormat,
		"Output format: "+strings.Join(report.Formats(), ", "))
	cmd.Flags().StringP("output", "o", "",
		"Write to this file, or to this directory when rendering several files")
	cmd.Flags().BoolP("summary", "s", false,
		"Add a risk summary section after the title")
	cmd.Flags().String("footer", "",
		"Append footer text after a horizontal rule")
	cmd.Flags().Bool("color", false,
		"Use ANSI colors in text output")

	// Batch flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of files rendered in parallel")

	// History flags
	cmd.Flags().Bool("save", false,
		"Store each rendered document in the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .tmreport in current or home directory, then config.yaml in the XDG config directory)")

	return cmd
}

// runRenderCmd executes the render command.
func runRenderCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), getLogFormatFlag(cmd), cfg.Verbose)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := newSettingsResolver(cfg, cmd.Flags().Changed)
	return runRender(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, resolver, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	cfg.Format = strings.ToLower(format)

	cfg.OutputPath, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Summary, err = cmd.Flags().GetBool("summary")
	if err != nil {
		return nil, err
	}

	cfg.Footer, err = cmd.Flags().GetString("footer")
	if err != nil {
		return nil, err
	}

	cfg.Color, err = cmd.Flags().GetBool("color")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.SaveToHistory, err = cmd.Flags().GetBool("save")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Project, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Inputs = args

	return cfg, nil
}

// fileSettings are the effective render settings of one input file.
type fileSettings struct {
	format string
	opts   report.Options
}

// settingsResolver merges flags with the project file per input file.
// Flags given on the command line win; otherwise the project file's
// report entry, then its defaults, then the flag defaults apply.
type settingsResolver struct {
	cfg     *config.Config
	changed func(name string) bool
}

func newSettingsResolver(cfg *config.Config, changed func(name string) bool) *settingsResolver {
	if changed == nil {
		changed = func(string) bool { return false }
	}
	return &settingsResolver{cfg: cfg, changed: changed}
}

// resolve returns the settings for the input at path.
func (r *settingsResolver) resolve(path string) fileSettings {
	s := fileSettings{
		format: r.cfg.Format,
		opts: report.Options{
			Summary: r.cfg.Summary,
			Footer:  r.cfg.Footer,
			Color:   r.cfg.Color,
		},
	}
	if r.cfg.Project == nil {
		return s
	}

	ps := r.cfg.Project.GetRenderSettings(filepath.Base(path))
	if ps.Format != "" && !r.changed("format") {
		s.format = strings.ToLower(ps.Format)
	}
	if ps.Footer != "" && !r.changed("footer") {
		s.opts.Footer = ps.Footer
	}
	if ps.Summary != nil && !r.changed("summary") {
		s.opts.Summary = *ps.Summary
	}
	if ps.Color != nil && !r.changed("color") {
		s.opts.Color = *ps.Color
	}
	return s
}

// rendererFor implements batch.RendererFactory.
func (r *settingsResolver) rendererFor(path string) (report.Renderer, error) {
	s := r.resolve(path)
	return report.New(s.format, s.opts)
}

// runRender renders every input and writes the documents.
func runRender(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, resolver *settingsResolver, logger *slog.Logger) error {
	logger.Debug("starting render",
		"inputs", cfg.Inputs,
		"format", cfg.Format,
		"concurrency", cfg.Concurrency,
		"saveToHistory", cfg.SaveToHistory,
	)

	renderer := batch.New(resolver.rendererFor,
		batch.WithConcurrency(cfg.Concurrency),
		batch.WithLogger(logger),
	)
	results, err := renderer.Render(ctx, cfg.Inputs)
	if err != nil {
		return fmt.Errorf("render cancelled: %w", err)
	}

	if err := writeResults(stdout, cfg, resolver, results); err != nil {
		return err
	}

	if cfg.SaveToHistory {
		if err := saveResults(ctx, stderr, cfg.DBDir, resolver, results, logger); err != nil {
			return err
		}
	}

	failed := batch.Failures(results)
	if len(failed) == 0 {
		return nil
	}
	if len(results) == 1 {
		return failed[0].Err
	}
	for _, res := range failed {
		fmt.Fprintf(stderr, "%s\n", res.Err)
	}
	return fmt.Errorf("%d of %d threat models failed to render", len(failed), len(results))
}

// writeResults writes the successful documents to stdout, a file, or a
// directory depending on cfg.OutputPath.
func writeResults(stdout io.Writer, cfg *config.Config, resolver *settingsResolver, results []batch.Result) error {
	if cfg.OutputPath == "" {
		first := true
		for _, res := range results {
			if res.Failed() {
				continue
			}
			if !first {
				fmt.Fprintln(stdout)
			}
			first = false
			if _, err := io.WriteString(stdout, res.Output); err != nil {
				return err
			}
		}
		return nil
	}

	toDir := len(results) > 1
	if info, err := os.Stat(cfg.OutputPath); err == nil && info.IsDir() {
		toDir = true
	}

	if !toDir {
		if results[0].Failed() {
			return nil
		}
		return writeFile(cfg.OutputPath, results[0].Output)
	}

	targets := make(map[string]string, len(results))
	for _, res := range results {
		if res.Failed() {
			continue
		}
		name := outputFileName(res.Path, resolver.resolve(res.Path).format)
		if prev, ok := targets[name]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, res.Path, name)
		}
		targets[name] = res.Path
		if err := writeFile(filepath.Join(cfg.OutputPath, name), res.Output); err != nil {
			return err
		}
	}
	return nil
}

// outputFileName maps an input file to its document file name.
func outputFileName(inputPath, format string) string {
	return historyName(inputPath) + report.Extension(format)
}

// historyName is the name a threat model is stored under: the input's
// base name without extension.
func historyName(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeFile writes a document, creating parent directories as needed.
func writeFile(path, content string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Threat models describe weaknesses, so documents are owner-only.
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// saveResults stores every successful document in the history database.
func saveResults(ctx context.Context, w io.Writer, dbDir string, resolver *settingsResolver, results []batch.Result, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Debug("database opened", "path", db.Path())

	var errs []error
	for _, res := range results {
		if res.Failed() {
			continue
		}
		name := historyName(res.Path)
		format := resolver.resolve(res.Path).format

		rev, saved, err := db.SaveRevision(ctx, name, res.Report, format, res.Output)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to save %s: %w", name, err))
			continue
		}
		if saved {
			fmt.Fprintf(w, "Saved %s revision %d (%s)\n", name, rev.ID, rev.RevisionID)
		} else {
			fmt.Fprintf(w, "No changes in %s since revision %d\n", name, rev.ID)
		}
	}
	return errors.Join(errs...)
}
