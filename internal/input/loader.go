package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/tmreport/internal/model"
	"gopkg.in/yaml.v3"
)

// Supported input formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// ErrUnsupportedFormat is returned for files whose extension is not
// .yaml, .yml, or .json.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// document mirrors the file layout of a threat model.
type document struct {
	Title           string             `yaml:"title" json:"title"`
	SystemOverview  string             `yaml:"systemOverview" json:"system_overview"`
	Assumptions     []string           `yaml:"assumptions" json:"assumptions"`
	Components      []string           `yaml:"components" json:"components"`
	Boundaries      []boundaryDocument `yaml:"boundaries" json:"boundaries"`
	DataAssets      []dataDocument     `yaml:"dataAssets" json:"data_assets"`
	Dataflows       []flowDocument     `yaml:"dataflows" json:"dataflows"`
	Controls        []controlDocument  `yaml:"controls" json:"controls"`
	Threats         []threatDocument   `yaml:"threats" json:"threats"`
	Recommendations []string           `yaml:"recommendations" json:"recommendations"`
}

type controlDocument struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Status      string `yaml:"status" json:"status"`
}

type boundaryDocument struct {
	Name       string   `yaml:"name" json:"name"`
	Components []string `yaml:"components" json:"components"`
}

type dataDocument struct {
	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description" json:"description"`
	Classification string `yaml:"classification" json:"classification"`
}

// flowDocument accepts "sink" as an alias of "destination" in YAML.
type flowDocument struct {
	Source      string `yaml:"source" json:"source"`
	Destination string `yaml:"destination" json:"destination"`
	Sink        string `yaml:"sink" json:"-"`
	Description string `yaml:"description" json:"description"`
}

type threatDocument struct {
	Severity    string `yaml:"severity" json:"severity"`
	Description string `yaml:"description" json:"description"`
}

// FormatFromPath detects the input format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s (use .yaml, .yml or .json)", ErrUnsupportedFormat, path)
	}
}

// Load reads and validates the threat model stored at path.
func Load(path string) (*model.ThreatModelReport, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open threat model: %w", err)
	}
	defer f.Close()

	report, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}

// Decode reads one threat model in the given format and validates it.
// Unknown fields are rejected.
func Decode(r io.Reader, format string) (*model.ThreatModelReport, error) {
	var doc document

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &model.ValidationError{Reason: "document is empty"}
			}
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, &model.ValidationError{Reason: "document is empty"}
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	report, enumErrs := doc.toModel()
	if err := joinValidation(enumErrs, report.Validate()); err != nil {
		return nil, err
	}
	return report, nil
}

// joinValidation merges enum errors from decoding with the report's own
// validation. Validate flags the same fields without the offending value,
// so its errors for fields already reported are dropped.
func joinValidation(enumErrs []error, validateErr error) error {
	if validateErr == nil {
		return errors.Join(enumErrs...)
	}

	reported := make(map[string]struct{}, len(enumErrs))
	for _, err := range enumErrs {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			reported[ve.Field] = struct{}{}
		}
	}

	errs := enumErrs
	for _, err := range unwrapJoined(validateErr) {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			if _, dup := reported[ve.Field]; dup {
				continue
			}
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// toModel converts the document. The report is always built; unknown enum
// values are returned alongside it so they can be reported together with
// every other violation.
func (d *document) toModel() (*model.ThreatModelReport, []error) {
	report := &model.ThreatModelReport{
		Title:           d.Title,
		SystemOverview:  d.SystemOverview,
		Assumptions:     d.Assumptions,
		Components:      d.Components,
		Recommendations: d.Recommendations,
	}

	var errs []error

	for _, b := range d.Boundaries {
		report.Boundaries = append(report.Boundaries, model.TrustBoundary{
			Name:       b.Name,
			Components: b.Components,
		})
	}

	for i, a := range d.DataAssets {
		classification, err := model.ParseClassification(a.Classification)
		if err != nil {
			errs = append(errs, &model.ValidationError{
				Field:  fmt.Sprintf("dataAssets[%d].classification", i),
				Reason: fmt.Sprintf("unknown classification %q", a.Classification),
			})
		}
		report.DataAssets = append(report.DataAssets, model.DataAsset{
			Name:           a.Name,
			Description:    a.Description,
			Classification: classification,
		})
	}

	for _, f := range d.Dataflows {
		destination := f.Destination
		if destination == "" {
			destination = f.Sink
		}
		report.Dataflows = append(report.Dataflows, model.Dataflow{
			Source:      f.Source,
			Destination: destination,
			Description: f.Description,
		})
	}

	for i, c := range d.Controls {
		status, err := model.ParseControlStatus(c.Status)
		if err != nil {
			errs = append(errs, &model.ValidationError{
				Field:  fmt.Sprintf("controls[%d].status", i),
				Reason: fmt.Sprintf("unknown control status %q", c.Status),
			})
		}
		report.Controls = append(report.Controls, model.SecurityControl{
			Name:        c.Name,
			Description: c.Description,
			Status:      status,
		})
	}

	for i, t := range d.Threats {
		severity, err := model.ParseSeverity(t.Severity)
		if err != nil {
			errs = append(errs, &model.ValidationError{
				Field:  fmt.Sprintf("threats[%d].severity", i),
				Reason: fmt.Sprintf("unknown severity %q", t.Severity),
			})
		}
		report.Threats = append(report.Threats, model.ThreatFinding{
			Severity:    severity,
			Description: t.Description,
		})
	}

	return report, errs
}
