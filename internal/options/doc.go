// Package options synthesizes command-line flags from the live component
// registry. Every property of every configured instance becomes a flag named
// `--<instance>.<property>`; parsed values are written back into the
// instances they came from.
package options
