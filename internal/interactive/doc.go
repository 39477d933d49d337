// Package interactive implements the launcher's display mode: a terminal
// editor for the properties of the configured instances, shown before the
// run starts.
package interactive
