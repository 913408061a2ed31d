// Package config provides configuration structures and utilities for tmreport.
// It defines the options for loading threat models, choosing an output
// format, and storing rendered revisions.
package config
