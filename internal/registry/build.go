package registry

import (
	"context"
	"fmt"

	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/ctxlog"
)

// Build instantiates the named instance: its effective property values are
// decoded into the factory's property struct and the factory is called.
func (r *Registry) Build(ctx context.Context, name string, service func(string) (component.Component, bool)) (component.Component, error) {
	inst, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("no instance named '%s' is configured", name)
	}
	def := inst.Definition
	if def.Lifecycle == nil || def.Lifecycle.Factory == "" {
		return nil, fmt.Errorf("component type '%s' of instance '%s' cannot be instantiated: no factory declared", def.Type, name)
	}
	factory, ok := r.FactoryRegistry[def.Lifecycle.Factory]
	if !ok {
		return nil, fmt.Errorf("factory '%s' for component type '%s' is not registered", def.Lifecycle.Factory, def.Type)
	}
	if r.converter == nil {
		return nil, fmt.Errorf("registry is not configured")
	}

	var props any
	if factory.NewProps != nil {
		props = factory.NewProps()
		if err := r.converter.DecodeProperties(ctx, props, inst.Values(), def.Properties); err != nil {
			return nil, fmt.Errorf("instance '%s': %w", name, err)
		}
	}

	logger := ctxlog.FromContext(ctx).With("instance", name, "type", def.Type)
	comp, err := factory.New(ctx, component.Env{Name: name, RunID: r.RunID, Logger: logger, Service: service}, props)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance '%s': %w", name, err)
	}
	return comp, nil
}
