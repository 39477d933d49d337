package options

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/ctxlog"
	"github.com/vk/gridlaunch/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Binding ties a synthesized flag to the property it overrides.
type Binding struct {
	Instance *registry.Instance
	Property string
	Flag     *pflag.Flag
	value    *propertyValue
}

// Set is the collection of bindings produced by Synthesize.
type Set struct {
	bindings []*Binding
}

// FlagName returns the flag that overrides a property of an instance.
func FlagName(instance, property string) string {
	return instance + "." + property
}

// Synthesize adds one flag per property of every live instance to fs.
// Deprecated properties are marked deprecated, so pflag warns when they
// are used and hides them from help.
func Synthesize(fs *pflag.FlagSet, reg *registry.Registry, conv config.Converter) (*Set, error) {
	set := &Set{}
	for _, inst := range reg.Instances() {
		for _, prop := range inst.PropertyNames() {
			def, _ := inst.Property(prop)
			name := FlagName(inst.Name, prop)
			if fs.Lookup(name) != nil {
				return nil, fmt.Errorf("flag --%s is already defined", name)
			}

			value := &propertyValue{def: def, conv: conv, current: inst.Value(prop)}
			flag := fs.VarPF(value, name, "", usage(inst, def))
			if def.Type.Equals(cty.Bool) {
				flag.NoOptDefVal = "true"
			}
			if def.Deprecated != "" {
				if err := fs.MarkDeprecated(name, def.Deprecated); err != nil {
					return nil, err
				}
			}
			set.bindings = append(set.bindings, &Binding{Instance: inst, Property: prop, Flag: flag, value: value})
		}
	}
	return set, nil
}

func usage(inst *registry.Instance, def *config.PropertyDefinition) string {
	desc := def.Description
	if desc == "" {
		desc = fmt.Sprintf("%s property of %s", def.Name, inst.Type)
	}
	if origin := inst.Origin(def.Name); origin != registry.OriginDefault {
		desc = fmt.Sprintf("%s (set in %s)", desc, origin)
	}
	return desc
}

// Bindings returns all bindings in synthesis order.
func (s *Set) Bindings() []*Binding {
	return s.bindings
}

// Apply writes every flag the user set back into its instance and returns
// the number of overrides applied.
func (s *Set) Apply(ctx context.Context) (int, error) {
	logger := ctxlog.FromContext(ctx)
	applied := 0
	for _, b := range s.bindings {
		if !b.Flag.Changed || b.value.parsed == nil {
			continue
		}
		if err := b.Instance.Set(b.Property, *b.value.parsed, registry.OriginCommandLine); err != nil {
			return applied, fmt.Errorf("--%s: %w", b.Flag.Name, err)
		}
		// pflag already printed the deprecation notice for this flag.
		logger.Debug("Applied command-line override.", "flag", "--"+b.Flag.Name, "value", Render(*b.value.parsed))
		applied++
	}
	return applied, nil
}

// ApplyAssignments applies generic `instance.property=value` overrides.
func ApplyAssignments(ctx context.Context, reg *registry.Registry, conv config.Converter, assignments []string) error {
	logger := ctxlog.FromContext(ctx)
	for _, a := range assignments {
		target, raw, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q: expected instance.property=value", a)
		}
		instName, prop, ok := strings.Cut(strings.TrimSpace(target), ".")
		if !ok || instName == "" || prop == "" {
			return fmt.Errorf("invalid assignment %q: expected instance.property=value", a)
		}

		inst, found := reg.Instance(instName)
		if !found {
			return fmt.Errorf("invalid assignment %q: no instance named '%s'", a, instName)
		}
		def, found := inst.Property(prop)
		if !found {
			return fmt.Errorf("invalid assignment %q: %s '%s' has no property '%s'", a, inst.Type, instName, prop)
		}

		val, err := conv.ParseValue(ctx, raw, def.Type)
		if err != nil {
			return fmt.Errorf("invalid assignment %q: %w", a, err)
		}
		if err := inst.Set(prop, val, registry.OriginCommandLine); err != nil {
			return err
		}
		if def.Deprecated != "" {
			logger.Warn("Deprecated property overridden on the command line.", "property", FlagName(instName, prop), "hint", def.Deprecated)
		}
	}
	return nil
}
