// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. Besides
// its fixed flags it exposes one flag per property of every configured
// instance, which is only known after the option files are loaded.
package cli
