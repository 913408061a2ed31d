package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/tmreport/internal/model"
)

// Output formats accepted by New.
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Renderer turns a threat model into a document.
//
// Render validates the report first. On failure it returns an empty string
// and the validation error; a partial document is never produced.
// Implementations must be safe for concurrent use.
type Renderer interface {
	Render(report *model.ThreatModelReport) (string, error)
}

// Options are the format-independent rendering settings.
type Options struct {
	// Summary adds a risk summary section after the title.
	Summary bool

	// Footer is appended after a horizontal rule when non-empty.
	Footer string

	// Color enables ANSI colors. Only the text format uses it.
	Color bool
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{FormatMarkdown, FormatText, FormatJSON}
}

// Extension returns the file extension for a format, including the dot.
func Extension(format string) string {
	switch format {
	case FormatText:
		return ".txt"
	case FormatJSON:
		return ".json"
	default:
		return ".md"
	}
}

// New returns the renderer for the named format.
func New(format string, opts Options) (Renderer, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		var mdOpts []MarkdownOption
		if opts.Summary {
			mdOpts = append(mdOpts, WithSummary())
		}
		if opts.Footer != "" {
			mdOpts = append(mdOpts, WithFooter(opts.Footer))
		}
		return NewMarkdownRenderer(mdOpts...), nil
	case FormatText, "txt":
		return NewTextRenderer(
			WithColor(opts.Color),
			WithTextSummary(opts.Summary),
			WithTextFooter(opts.Footer),
		), nil
	case FormatJSON:
		return NewJSONRenderer(WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// Write renders the report and writes the document to w.
// Nothing is written when rendering fails.
func Write(w io.Writer, renderer Renderer, report *model.ThreatModelReport) (int, error) {
	doc, err := renderer.Render(report)
	if err != nil {
		return 0, err
	}
	return io.WriteString(w, doc)
}

// flatten collapses line breaks so a value fits on one line of a table
// row or callout.
func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", " ")), " ")
}
