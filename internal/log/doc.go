// Package log builds the slog loggers used by tmreport.
//
// Threat models are written by people and routinely quote what they
// describe: an example access key, a bearer token copied from a ticket, a
// private key header. RedactingHandler masks such values before any record
// reaches the output, so debug logs that echo input stay safe to share.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	logger.Debug("loaded threat model", "path", path, "title", report.Title)
package log
