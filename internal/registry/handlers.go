package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/vk/gridlaunch/internal/component"
)

// RegisteredComponent holds the compiled Go parts of a component type.
type RegisteredComponent struct {
	// NewProps returns a pointer to a fresh property struct. Nil means the
	// component takes no properties.
	NewProps func() any
	// PropsType is the struct type NewProps points to.
	PropsType reflect.Type
	New       func(ctx context.Context, env component.Env, props any) (component.Component, error)
}

// RegisterFactory registers the Go factory for a component type.
func (r *Registry) RegisterFactory(name string, handler *RegisteredComponent) {
	if _, exists := r.FactoryRegistry[name]; exists {
		panic(fmt.Sprintf("component factory with name '%s' already registered", name))
	}
	slog.Debug("Registering component factory.", "name", name)
	r.FactoryRegistry[name] = handler
}
