// Package app is the composition root of the launcher. It wires the logger,
// loader, registry and modules, applies the option files and implements
// the launcher's modes (run, list, dump, debugger attach) independently of
// the command-line surface.
package app
