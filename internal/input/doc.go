// Package input reads threat models from YAML or JSON files.
//
// Files are decoded into a plain document with string enums and then
// converted to model.ThreatModelReport, so an unknown severity or control
// status is reported as a model.ValidationError naming the offending field
// rather than as a decoder error.
package input
