package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoInput is returned when no threat model file is given.
	ErrNoInput = errors.New("no input specified: provide one or more threat model files")

	// ErrUnknownFormat is returned when the output format is not one of
	// markdown, text, or json.
	ErrUnknownFormat = errors.New("unknown output format: use markdown, text or json")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrOutputNotDirectory is returned when several inputs are rendered to
	// an output path that exists and is not a directory.
	ErrOutputNotDirectory = errors.New("output must be a directory when rendering several inputs")
)
