// Package main provides the entry point for the tmreport CLI.
//
// tmreport renders structured threat models (system overview, components,
// security controls, threats, recommendations) into Markdown, plain text,
// or JSON documents, and keeps a history of rendered revisions.
//
// Usage:
//
//	tmreport init
//	tmreport render threatmodel.yaml
//	tmreport render --summary -o report.md threatmodel.yaml
//
// See --help for all available options.
package main

// main is the entry point for tmreport.
func main() {
	Execute()
}
