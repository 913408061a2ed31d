// Package report renders threat models into documents.
//
// This package contains renderers for different output formats:
//   - MarkdownRenderer: GitHub Flavored Markdown, the primary report format
//   - TextRenderer: Human-readable text for terminal display
//   - JSONRenderer: Normalized JSON for tool integration
//
// Design decision: We separate rendering from the data structures in the
// model package. Renderers are pure functions of their input: the same
// threat model always yields byte-identical output, and nothing is written
// anywhere. Writing the result to a file or stdout is the caller's job (see
// Write).
package report
