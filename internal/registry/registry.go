package registry

import (
	"fmt"
	"sort"

	"github.com/vk/gridlaunch/internal/config"
)

// Module is the interface that all component modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered factories, definitions and live instances
// for a single application instance.
type Registry struct {
	FactoryRegistry    map[string]*RegisteredComponent
	DefinitionRegistry map[string]*config.ComponentDefinition
	// RunID is handed to every factory through component.Env.
	RunID string

	manifests []config.File
	instances []*Instance
	byName    map[string]*Instance
	converter config.Converter
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		FactoryRegistry:    make(map[string]*RegisteredComponent),
		DefinitionRegistry: make(map[string]*config.ComponentDefinition),
		byName:             make(map[string]*Instance),
	}
}

// RegisterManifest records a manifest compiled into a module so that it is
// loaded together with any manifests found on disk.
func (r *Registry) RegisterManifest(name string, src []byte) {
	r.manifests = append(r.manifests, config.File{Name: name, Bytes: src})
}

// Manifests returns the manifests registered by modules.
func (r *Registry) Manifests() []config.File {
	return r.manifests
}

// PopulateDefinitions copies loaded component definitions into the registry.
func (r *Registry) PopulateDefinitions(defs map[string]*config.ComponentDefinition) error {
	for typ, def := range defs {
		if prev, exists := r.DefinitionRegistry[typ]; exists {
			return fmt.Errorf("component '%s' defined in both %s and %s", typ, prev.Source, def.Source)
		}
		r.DefinitionRegistry[typ] = def
	}
	return nil
}

// Types returns the names of all defined component types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.DefinitionRegistry))
	for typ := range r.DefinitionRegistry {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// Instances returns the live instances in declaration order.
func (r *Registry) Instances() []*Instance {
	return r.instances
}

// Instance looks up a live instance by name.
func (r *Registry) Instance(name string) (*Instance, bool) {
	inst, ok := r.byName[name]
	return inst, ok
}

// Converter returns the converter the registry was configured with.
func (r *Registry) Converter() config.Converter {
	return r.converter
}

// Snapshots returns the effective configuration of every instance.
func (r *Registry) Snapshots() []config.Snapshot {
	out := make([]config.Snapshot, 0, len(r.instances))
	for _, inst := range r.instances {
		out = append(out, inst.Snapshot())
	}
	return out
}
