// Package registry provides the live component registry of the framework.
//
// The Registry stores mappings between the factory names used in manifests
// (e.g., "NewCounter") and the compiled Go functions and property structs
// that implement each component type. It also holds the parsed,
// format-agnostic component definitions and the live, configured instances
// whose properties the launcher exposes on the command line.
//
// During startup the registry is populated, validated to ensure that the Go
// code and the manifests are in sync, and then configured from the option
// files. Command-line overrides are written straight into the instances.
package registry
