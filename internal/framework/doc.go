// Package framework is the host run loop the launcher delegates to. It
// builds the configured services and the algorithm sequence from the
// registry, initializes them, pushes events through the sequence on a
// bounded pool of workers and finalizes everything in reverse order.
package framework
