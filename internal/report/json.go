package report

import (
	"encoding/json"

	"github.com/nao1215/tmreport/internal/model"
)

// JSONRenderer renders the validated threat model as JSON.
// Severities and statuses are written by name, so the output can be read
// back by the input loader.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because struct field order gives deterministic output and
// the loader on the other side uses the same package.
type JSONRenderer struct {
	indent       bool
	indentPrefix string
	indentString string
}

// JSONOption configures a JSONRenderer.
type JSONOption func(*JSONRenderer)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONOption {
	return func(r *JSONRenderer) {
		r.indent = true
		r.indentPrefix = prefix
		r.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONOption {
	return WithIndent("", "  ")
}

// NewJSONRenderer creates a JSONRenderer. Output is compact by default.
func NewJSONRenderer(opts ...JSONOption) *JSONRenderer {
	r := &JSONRenderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render marshals the report, followed by a newline.
func (r *JSONRenderer) Render(report *model.ThreatModelReport) (string, error) {
	if err := report.Validate(); err != nil {
		return "", err
	}

	var (
		data []byte
		err  error
	)
	if r.indent {
		data, err = json.MarshalIndent(report, r.indentPrefix, r.indentString)
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
