// Package model defines the core data structures used throughout tmreport.
//
// This package contains the following main types:
//   - ThreatModelReport: The aggregate root describing a reviewed system
//   - SecurityControl: A defensive measure and its implementation status
//   - ThreatFinding: An identified risk with a severity classification
//   - Comparison: The difference between two revisions of a threat model
//
// Design decision: The model carries no presentation concerns. Severities and
// control statuses are plain enumerations; renderers in the report package
// decide how each value looks. This keeps one model usable by every output
// format and by the history store.
package model
