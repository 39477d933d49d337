// Package component defines the contracts between the framework's run loop
// and the component implementations contributed by modules.
package component
