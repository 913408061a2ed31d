package model

import (
	"errors"
	"strings"
)

// DefaultTitle is used when a threat model does not name itself.
const DefaultTitle = "Threat Model Report"

// ThreatModelReport is the aggregate root of a threat-model document.
// It is built once from caller data, rendered, and discarded; renderers
// never modify it.
//
// Order in every slice is meaningful. Components follow the architecture
// diagram, and controls, threats, and recommendations follow the narrative of
// the review. Nothing in tmreport sorts them.
type ThreatModelReport struct {
	// Title is the document title. Empty means DefaultTitle.
	Title string `json:"title,omitempty"`

	// SystemOverview is free text describing the system under review.
	SystemOverview string `json:"system_overview,omitempty"`

	// Assumptions are statements the review takes for granted,
	// such as "all external traffic is served over HTTPS".
	Assumptions []string `json:"assumptions,omitempty"`

	// Components are the named architecture elements. Must not be empty.
	Components []string `json:"components"`

	// Boundaries group components into trust zones.
	Boundaries []TrustBoundary `json:"boundaries,omitempty"`

	// DataAssets are the kinds of data the system stores or moves.
	DataAssets []DataAsset `json:"data_assets,omitempty"`

	// Dataflows connect two components. Both ends must name a component.
	Dataflows []Dataflow `json:"dataflows,omitempty"`

	// Controls are the defensive measures and their status.
	Controls []SecurityControl `json:"controls,omitempty"`

	// Threats are the identified risks.
	Threats []ThreatFinding `json:"threats,omitempty"`

	// Recommendations are remediation steps.
	Recommendations []string `json:"recommendations,omitempty"`
}

// SecurityControl is a defensive measure with an implementation status.
type SecurityControl struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ControlStatus `json:"status"`
}

// ThreatFinding is an identified risk with a severity classification.
type ThreatFinding struct {
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// TrustBoundary is a named trust zone and the components inside it.
type TrustBoundary struct {
	Name       string   `json:"name"`
	Components []string `json:"components,omitempty"`
}

// DataAsset is a kind of data handled by the system.
type DataAsset struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Classification Classification `json:"classification"`
}

// Dataflow is data moving from one component to another.
type Dataflow struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Description string `json:"description"`
}

// DisplayTitle returns the title to render on a single line.
// Runs of whitespace, line breaks included, collapse to one space so a
// title can never start a new block in the rendered document.
func (r *ThreatModelReport) DisplayTitle() string {
	if t := strings.Join(strings.Fields(r.Title), " "); t != "" {
		return t
	}
	return DefaultTitle
}

// Validate checks every invariant a renderable threat model must satisfy.
// It returns nil or the joined set of *ValidationError values, one per
// violation, in document order.
func (r *ThreatModelReport) Validate() error {
	if r == nil {
		return &ValidationError{Reason: "report is nil"}
	}

	var errs []error

	components := make(map[string]struct{}, len(r.Components))
	for _, c := range r.Components {
		components[strings.TrimSpace(c)] = struct{}{}
	}
	known := func(name string) bool {
		if isBlank(name) {
			return false
		}
		_, ok := components[strings.TrimSpace(name)]
		return ok
	}

	if len(r.Components) == 0 {
		errs = append(errs, &ValidationError{Field: "components", Reason: "at least one component is required"})
	}
	for i, c := range r.Components {
		if isBlank(c) {
			errs = append(errs, &ValidationError{Field: indexedField("components", i, ""), Reason: "must not be empty"})
		}
	}

	for i, b := range r.Boundaries {
		if isBlank(b.Name) {
			errs = append(errs, &ValidationError{Field: indexedField("boundaries", i, "name"), Reason: "must not be empty"})
		}
		for j, member := range b.Components {
			if !known(member) {
				errs = append(errs, &ValidationError{
					Field:  indexedField("boundaries", i, indexedField("components", j, "")),
					Reason: "unknown component " + quote(member),
				})
			}
		}
	}

	for i, a := range r.DataAssets {
		if isBlank(a.Name) {
			errs = append(errs, &ValidationError{Field: indexedField("dataAssets", i, "name"), Reason: "must not be empty"})
		}
		if !a.Classification.Valid() {
			errs = append(errs, &ValidationError{Field: indexedField("dataAssets", i, "classification"), Reason: "unknown classification"})
		}
	}

	for i, f := range r.Dataflows {
		if !known(f.Source) {
			errs = append(errs, &ValidationError{Field: indexedField("dataflows", i, "source"), Reason: "unknown component " + quote(f.Source)})
		}
		if !known(f.Destination) {
			errs = append(errs, &ValidationError{Field: indexedField("dataflows", i, "destination"), Reason: "unknown component " + quote(f.Destination)})
		}
		if isBlank(f.Description) {
			errs = append(errs, &ValidationError{Field: indexedField("dataflows", i, "description"), Reason: "must not be empty"})
		}
	}

	for i, c := range r.Controls {
		if isBlank(c.Name) {
			errs = append(errs, &ValidationError{Field: indexedField("controls", i, "name"), Reason: "must not be empty"})
		}
		if !c.Status.Valid() {
			errs = append(errs, &ValidationError{Field: indexedField("controls", i, "status"), Reason: "unknown control status"})
		}
	}

	for i, t := range r.Threats {
		if !t.Severity.Valid() {
			errs = append(errs, &ValidationError{Field: indexedField("threats", i, "severity"), Reason: "unknown severity"})
		}
		if isBlank(t.Description) {
			errs = append(errs, &ValidationError{Field: indexedField("threats", i, "description"), Reason: "must not be empty"})
		}
	}

	for i, a := range r.Assumptions {
		if isBlank(a) {
			errs = append(errs, &ValidationError{Field: indexedField("assumptions", i, ""), Reason: "must not be empty"})
		}
	}

	for i, rec := range r.Recommendations {
		if isBlank(rec) {
			errs = append(errs, &ValidationError{Field: indexedField("recommendations", i, ""), Reason: "must not be empty"})
		}
	}

	return errors.Join(errs...)
}

// Summary counts threats by severity and controls by status.
type Summary struct {
	BySeverity map[Severity]int
	ByStatus   map[ControlStatus]int

	// RiskScore is the weighted sum of threat severities.
	RiskScore int
}

// Summarize builds a Summary. Unknown enum values are not counted.
func (r *ThreatModelReport) Summarize() Summary {
	s := Summary{
		BySeverity: make(map[Severity]int, len(Severities)),
		ByStatus:   make(map[ControlStatus]int, len(ControlStatuses)),
	}
	for _, t := range r.Threats {
		if t.Severity.Valid() {
			s.BySeverity[t.Severity]++
			s.RiskScore += t.Severity.Weight()
		}
	}
	for _, c := range r.Controls {
		if c.Status.Valid() {
			s.ByStatus[c.Status]++
		}
	}
	return s
}

// TotalThreats returns the number of counted threats.
func (s Summary) TotalThreats() int {
	total := 0
	for _, n := range s.BySeverity {
		total += n
	}
	return total
}

// HighestSeverity returns the most severe counted severity and false when
// there are no threats.
func (s Summary) HighestSeverity() (Severity, bool) {
	for i := len(Severities) - 1; i >= 0; i-- {
		if s.BySeverity[Severities[i]] > 0 {
			return Severities[i], true
		}
	}
	return SeverityInfo, false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
