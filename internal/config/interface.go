package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// LoadManifests reads component manifests from the given files and
	// returns the definitions they declare, keyed by component type.
	LoadManifests(ctx context.Context, files ...File) (map[string]*ComponentDefinition, error)

	// Load reads option files, translates them into the format-agnostic
	// model, and returns a matching Converter.
	Load(ctx context.Context, files ...File) (*Model, Converter, error)
}

// Converter is the interface for a format-specific data binding and type
// conversion implementation. It acts as the bridge between raw
// configuration, command-line text and the Go types used by components.
type Converter interface {
	// Evaluate computes the value of an option file expression.
	Evaluate(ctx context.Context, expr hcl.Expression) (cty.Value, error)

	// ParseValue converts command-line text into a value of the given type.
	ParseValue(ctx context.Context, raw string, ty cty.Type) (cty.Value, error)

	// DecodeProperties populates a Go property struct from effective
	// property values, applying defaults for anything not set.
	DecodeProperties(ctx context.Context, target any, values map[string]cty.Value, defs map[string]*PropertyDefinition) error

	// ToCtyValue converts a native Go value into its cty.Value equivalent.
	ToCtyValue(v any) (cty.Value, error)
}

// File is a named chunk of configuration source.
type File struct {
	Name  string
	Bytes []byte
}
