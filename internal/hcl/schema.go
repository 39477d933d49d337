package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Option File Structures ---

// optionsRoot represents the top-level structure of an option file.
type optionsRoot struct {
	Application []*applicationBlock `hcl:"application,block"`
	Configure   []*configureBlock   `hcl:"configure,block"`
}

// applicationBlock holds the settings of the framework's application
// manager. Its attributes are validated against the Application manifest.
type applicationBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// configureBlock represents a `configure "Type" "name"` block, the
// declaration of one configurable component instance.
type configureBlock struct {
	Type string   `hcl:"type,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// --- Component Manifest Schemas ---

// manifestRoot represents the top-level structure of a manifest file.
type manifestRoot struct {
	Components []*componentBlock `hcl:"component,block"`
}

// componentBlock represents the HCL manifest of a component type.
type componentBlock struct {
	Type        string           `hcl:"type,label"`
	Kind        string           `hcl:"kind,optional"`
	Description string           `hcl:"description,optional"`
	Lifecycle   *lifecycleBlock  `hcl:"lifecycle,block"`
	Properties  []*propertyBlock `hcl:"property,block"`
}

// lifecycleBlock maps a component type to its registered Go factory.
type lifecycleBlock struct {
	Factory string `hcl:"factory"`
}

// propertyBlock defines a single configurable property.
type propertyBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Deprecated  string         `hcl:"deprecated,optional"`
}
