// Package config defines the format-agnostic configuration model for the
// launcher, along with the core interfaces (Loader, Converter) for loading
// option files and interpreting property values.
//
// The `config.Model` is the single source of truth for the `registry`
// package. Concrete implementations of the interfaces, such as for HCL, are
// provided in separate packages.
package config
