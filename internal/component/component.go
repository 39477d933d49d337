package component

import (
	"context"
	"errors"
	"log/slog"
)

// ErrEndOfInput may be returned by an algorithm to end the run gracefully
// after the current event.
var ErrEndOfInput = errors.New("end of input")

// Component is anything a factory can build.
type Component interface {
	Name() string
}

// Initializer is implemented by components that need to prepare before the
// first event.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Algorithm is executed once per event, in sequence order.
type Algorithm interface {
	Component
	Execute(ctx context.Context, evt *Event) error
}

// Finalizer is implemented by components that release resources or
// publish results after the last event.
type Finalizer interface {
	Finalize(ctx context.Context) error
}

// Env is what a factory receives besides its decoded properties.
type Env struct {
	Name   string
	RunID  string
	Logger *slog.Logger
	// Service returns an already built service instance by name.
	Service func(name string) (Component, bool)
}

// Base carries the instance name and can be embedded by implementations.
type Base struct {
	InstanceName string
}

// Name implements Component.
func (b Base) Name() string {
	return b.InstanceName
}
