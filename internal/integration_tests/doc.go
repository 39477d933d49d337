// Package integration_tests runs the launcher end to end: real option
// files, the compiled-in modules and the full two-phase flag parse.
package integration_tests
