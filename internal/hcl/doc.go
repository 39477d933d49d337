// Package hcl provides the concrete HCL implementation for the configuration
// loading and data conversion interfaces defined in the `config` package.
// It is responsible for manifest and option file parsing, HCL-to-model
// translation, command-line value parsing and CTY-to-Go data binding.
package hcl
