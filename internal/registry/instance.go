package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vk/gridlaunch/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Value origins reported by Instance.Origin.
const (
	OriginDefault     = "default"
	OriginCommandLine = "command line"
	OriginInteractive = "interactive"
)

// Instance is a live, configurable component instance. Values are only
// stored for properties that were explicitly set; everything else falls
// back to the manifest default.
type Instance struct {
	Name       string
	Type       string
	Definition *config.ComponentDefinition

	mu      sync.RWMutex
	values  map[string]cty.Value
	origins map[string]string
}

func newInstance(name string, def *config.ComponentDefinition) *Instance {
	return &Instance{
		Name:       name,
		Type:       def.Type,
		Definition: def,
		values:     make(map[string]cty.Value),
		origins:    make(map[string]string),
	}
}

// PropertyNames returns the declared property names, sorted.
func (i *Instance) PropertyNames() []string {
	names := make([]string, 0, len(i.Definition.Properties))
	for name := range i.Definition.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Property returns the definition of a property.
func (i *Instance) Property(name string) (*config.PropertyDefinition, bool) {
	def, ok := i.Definition.Properties[name]
	return def, ok
}

// Set stores an explicit value after converting it to the declared type.
func (i *Instance) Set(name string, val cty.Value, origin string) error {
	def, ok := i.Property(name)
	if !ok {
		return fmt.Errorf("%s '%s' has no property '%s' (available: %s)", i.Type, i.Name, name, strings.Join(i.PropertyNames(), ", "))
	}

	if !def.Type.Equals(cty.DynamicPseudoType) {
		converted, err := convert.Convert(val, def.Type)
		if err != nil {
			return fmt.Errorf("%s.%s: expected %s: %w", i.Name, name, def.Type.FriendlyName(), err)
		}
		val = converted
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.values[name] = val
	i.origins[name] = origin
	return nil
}

// Value returns the effective value of a property.
func (i *Instance) Value(name string) cty.Value {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if v, ok := i.values[name]; ok {
		return v
	}
	if def, ok := i.Definition.Properties[name]; ok {
		return def.DefaultValue()
	}
	return cty.NilVal
}

// IsSet reports whether a property was explicitly set.
func (i *Instance) IsSet(name string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.values[name]
	return ok
}

// Origin reports where the effective value of a property came from.
func (i *Instance) Origin(name string) string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if o, ok := i.origins[name]; ok {
		return o
	}
	return OriginDefault
}

// Values returns a copy of the explicitly set values.
func (i *Instance) Values() map[string]cty.Value {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(map[string]cty.Value, len(i.values))
	for k, v := range i.values {
		out[k] = v
	}
	return out
}

// Snapshot returns the effective values and their origins.
func (i *Instance) Snapshot() config.Snapshot {
	s := config.Snapshot{
		Type:    i.Type,
		Name:    i.Name,
		Values:  make(map[string]cty.Value, len(i.Definition.Properties)),
		Origins: make(map[string]string, len(i.Definition.Properties)),
	}
	for _, name := range i.PropertyNames() {
		s.Values[name] = i.Value(name)
		s.Origins[name] = i.Origin(name)
	}
	return s
}
