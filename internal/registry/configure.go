package registry

import (
	"context"
	"fmt"

	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/ctxlog"
)

// Configure creates the live instances declared by the option files and
// stores their evaluated property values. The application instance always
// exists, even when no option file configures it.
func (r *Registry) Configure(ctx context.Context, model *config.Model, conv config.Converter) error {
	logger := ctxlog.FromContext(ctx)
	r.converter = conv

	if _, declared := findInstance(model, config.ApplicationName); !declared {
		if err := r.addInstance(config.ApplicationName, config.ApplicationType); err != nil {
			return err
		}
	}

	for _, decl := range model.Instances {
		if err := r.addInstance(decl.Name, decl.Type); err != nil {
			return fmt.Errorf("%s: %w", decl.Source, err)
		}
		inst := r.byName[decl.Name]

		for prop, expr := range decl.Properties {
			source := decl.Sources[prop]
			def, ok := inst.Property(prop)
			if !ok {
				return fmt.Errorf("%s: %s '%s' has no property '%s'", source, decl.Type, decl.Name, prop)
			}
			if def.Deprecated != "" {
				logger.Warn("Deprecated property used in option file.", "instance", decl.Name, "property", prop, "file", source, "hint", def.Deprecated)
			}

			val, err := conv.Evaluate(ctx, expr)
			if err != nil {
				return fmt.Errorf("%s: %s.%s: %w", source, decl.Name, prop, err)
			}
			if err := inst.Set(prop, val, source); err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}
		}
		logger.Debug("Configured instance.", "instance", decl.Name, "type", decl.Type, "properties", len(decl.Properties))
	}

	logger.Debug("Registry configured.", "instances", len(r.instances))
	return nil
}

func (r *Registry) addInstance(name, typ string) error {
	def, ok := r.DefinitionRegistry[typ]
	if !ok {
		return fmt.Errorf("instance '%s' has unknown component type '%s'", name, typ)
	}
	if existing, ok := r.byName[name]; ok {
		if existing.Type != typ {
			return fmt.Errorf("instance '%s' already exists with type '%s'", name, existing.Type)
		}
		return nil
	}
	inst := newInstance(name, def)
	r.instances = append(r.instances, inst)
	r.byName[name] = inst
	return nil
}

func findInstance(model *config.Model, name string) (*config.Instance, bool) {
	for _, inst := range model.Instances {
		if inst.Name == name {
			return inst, true
		}
	}
	return nil, false
}
