package model

import "strings"

// Classification is the sensitivity level of a data asset.
// The levels follow the usual government-style ladder, from data that may be
// published to data whose disclosure is catastrophic.
type Classification int

const (
	// ClassificationPublic is data that may be freely published.
	ClassificationPublic Classification = iota
	// ClassificationRestricted is internal data such as product catalogs
	// with unpublished prices.
	ClassificationRestricted
	// ClassificationSensitive is personal or customer data.
	ClassificationSensitive
	// ClassificationSecret is data such as credentials and signing keys.
	ClassificationSecret
	// ClassificationTopSecret is the highest level.
	ClassificationTopSecret
)

// Classifications lists every known classification from lowest to highest.
var Classifications = []Classification{
	ClassificationPublic,
	ClassificationRestricted,
	ClassificationSensitive,
	ClassificationSecret,
	ClassificationTopSecret,
}

// String returns the canonical upper-case name of the classification.
func (c Classification) String() string {
	switch c {
	case ClassificationPublic:
		return "PUBLIC"
	case ClassificationRestricted:
		return "RESTRICTED"
	case ClassificationSensitive:
		return "SENSITIVE"
	case ClassificationSecret:
		return "SECRET"
	case ClassificationTopSecret:
		return "TOP_SECRET"
	default:
		return "UNKNOWN"
	}
}

// Label returns the display name ("Top Secret").
func (c Classification) Label() string {
	return titleCase(strings.ReplaceAll(c.String(), "_", " "))
}

// Valid reports whether c is one of the known classifications.
func (c Classification) Valid() bool {
	return c >= ClassificationPublic && c <= ClassificationTopSecret
}

// MarshalText encodes the classification as its canonical name.
func (c Classification) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, &ValidationError{Field: "classification", Reason: "unknown classification " + c.String()}
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a classification name.
func (c *Classification) UnmarshalText(text []byte) error {
	v, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseClassification converts a case-insensitive name to a Classification.
// Spaces, dashes, and underscores are interchangeable, so "top secret",
// "top-secret", and "TOP_SECRET" are the same level.
func ParseClassification(name string) (Classification, error) {
	normalized := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(name)))
	switch normalized {
	case "public":
		return ClassificationPublic, nil
	case "restricted":
		return ClassificationRestricted, nil
	case "sensitive":
		return ClassificationSensitive, nil
	case "secret":
		return ClassificationSecret, nil
	case "top_secret":
		return ClassificationTopSecret, nil
	default:
		return Classification(-1), &ValidationError{Field: "classification", Reason: "unknown classification " + quote(name)}
	}
}
