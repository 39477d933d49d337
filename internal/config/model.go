package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Component kinds.
const (
	KindAlgorithm = "algorithm"
	KindService   = "service"
)

// ApplicationType and ApplicationName identify the instance that an
// `application` block configures.
const (
	ApplicationType = "Application"
	ApplicationName = "app"
)

// Model is the unified, format-agnostic representation of everything the
// option files declared.
type Model struct {
	Instances []*Instance
}

// Instance is the format-agnostic representation of a `configure` block.
// Repeated declarations of the same instance are merged by the loader, so
// Properties holds the last expression seen for every property.
type Instance struct {
	Type       string
	Name       string
	Properties map[string]hcl.Expression
	// Sources records the file each property expression was read from.
	Sources map[string]string
	Source  string
}

// ComponentDefinition is the format-agnostic representation of a
// component manifest.
type ComponentDefinition struct {
	Type        string
	Kind        string
	Description string
	Lifecycle   *Lifecycle
	Properties  map[string]*PropertyDefinition
	Source      string
}

// Lifecycle maps a component to the Go factory that creates it.
type Lifecycle struct {
	Factory string
}

// PropertyDefinition defines a single configurable property.
type PropertyDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	// Deprecated is the replacement hint shown when the property is used.
	// An empty string means the property is current.
	Deprecated string
}

// DefaultValue returns the declared default, or a typed null.
func (p *PropertyDefinition) DefaultValue() cty.Value {
	if p.Default != nil {
		return *p.Default
	}
	return cty.NullVal(p.Type)
}

// Snapshot is the effective configuration of one live instance, used for
// listing and dumping.
type Snapshot struct {
	Type   string
	Name   string
	Values map[string]cty.Value
	// Origins tells where each value came from: "default", an option file,
	// "command line" or "interactive".
	Origins map[string]string
}
