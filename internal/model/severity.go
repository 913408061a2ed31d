package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Severity represents the risk level of a threat finding.
//
// Design decision: We use iota-based constants rather than string constants
// so that comparisons and risk scoring are cheap. String() and
// ParseSeverity convert to and from the names used in input files.
type Severity int

const (
	// SeverityInfo indicates an informational finding with no direct impact.
	SeverityInfo Severity = iota

	// SeverityWarning indicates a weakness that should be addressed.
	// Example: a public S3 bucket without a restrictive access policy.
	SeverityWarning

	// SeverityCritical indicates an issue that likely leads to compromise
	// and requires immediate attention.
	SeverityCritical
)

// Severities lists every known severity from lowest to highest.
var Severities = []Severity{SeverityInfo, SeverityWarning, SeverityCritical}

// String returns the canonical upper-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Label returns the title-cased display name ("Warning").
func (s Severity) Label() string {
	return titleCase(s.String())
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	return s >= SeverityInfo && s <= SeverityCritical
}

// Weight is the contribution of one finding to a risk score.
// Unknown severities weigh nothing.
func (s Severity) Weight() int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityWarning:
		return 5
	case SeverityCritical:
		return 20
	default:
		return 0
	}
}

// MarshalText encodes the severity as its canonical name.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, &ValidationError{Field: "severity", Reason: "unknown severity " + s.String()}
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity converts a case-insensitive name to a Severity.
// "warn" is accepted as an alias of "warning".
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return Severity(-1), &ValidationError{Field: "severity", Reason: "unknown severity " + quote(name)}
	}
}

// ControlStatus is the implementation state of a security control.
type ControlStatus int

const (
	// StatusImplemented means the control is fully in place.
	StatusImplemented ControlStatus = iota
	// StatusPartial means the control covers only part of the system.
	StatusPartial
	// StatusMissing means the control is absent.
	StatusMissing
)

// ControlStatuses lists every known status.
var ControlStatuses = []ControlStatus{StatusImplemented, StatusPartial, StatusMissing}

// String returns the canonical upper-case name of the status.
func (c ControlStatus) String() string {
	switch c {
	case StatusImplemented:
		return "IMPLEMENTED"
	case StatusPartial:
		return "PARTIAL"
	case StatusMissing:
		return "MISSING"
	default:
		return "UNKNOWN"
	}
}

// Label returns the title-cased display name ("Implemented").
func (c ControlStatus) Label() string {
	return titleCase(c.String())
}

// Valid reports whether c is one of the known statuses.
func (c ControlStatus) Valid() bool {
	return c >= StatusImplemented && c <= StatusMissing
}

// MarshalText encodes the status as its canonical name.
func (c ControlStatus) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown control status " + c.String()}
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a status name.
func (c *ControlStatus) UnmarshalText(text []byte) error {
	v, err := ParseControlStatus(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseControlStatus converts a case-insensitive name to a ControlStatus.
func ParseControlStatus(name string) (ControlStatus, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "implemented":
		return StatusImplemented, nil
	case "partial":
		return StatusPartial, nil
	case "missing":
		return StatusMissing, nil
	default:
		return ControlStatus(-1), &ValidationError{Field: "status", Reason: "unknown control status " + quote(name)}
	}
}

// titleCase turns "WARNING" into "Warning".
// A Caser keeps state, so a fresh one is built per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}
