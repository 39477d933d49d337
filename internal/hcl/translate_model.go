// This file contains the logic for translating HCL schema structs (from
// schema.go) into the format-agnostic configuration model defined in the
// config package.

package hcl

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/zclconf/go-cty/cty/convert"
)

// instanceNamePattern restricts instance names to what can be spelled as
// part of a command-line flag.
var instanceNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// translatePropertyDefinition processes a single `property` block, handling
// its type and default value.
func translatePropertyDefinition(p *propertyBlock, componentType string) (*config.PropertyDefinition, error) {
	ty, err := typeExprToCtyType(p.Type)
	if err != nil {
		return nil, fmt.Errorf("in component '%s', property '%s': %w", componentType, p.Name, err)
	}

	def := &config.PropertyDefinition{
		Name:        p.Name,
		Type:        ty,
		Description: p.Description,
		Deprecated:  p.Deprecated,
	}

	if p.Default != nil {
		val, diags := p.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for property '%s' in component '%s': %w", p.Name, componentType, diags)
		}
		if !val.IsNull() {
			converted, err := convert.Convert(val, ty)
			if err != nil {
				return nil, fmt.Errorf("default value for property '%s' in component '%s' is not a valid %s: %w", p.Name, componentType, ty.FriendlyName(), err)
			}
			def.Default = &converted
		}
	}
	return def, nil
}

// translateComponentDefinition converts a `component` block into the
// agnostic model.
func translateComponentDefinition(c *componentBlock, source string) (*config.ComponentDefinition, error) {
	kind := c.Kind
	if kind == "" {
		kind = config.KindAlgorithm
	}
	if kind != config.KindAlgorithm && kind != config.KindService {
		return nil, fmt.Errorf("component '%s': unknown kind %q, expected %q or %q", c.Type, kind, config.KindAlgorithm, config.KindService)
	}

	def := &config.ComponentDefinition{
		Type:        c.Type,
		Kind:        kind,
		Description: c.Description,
		Properties:  make(map[string]*config.PropertyDefinition, len(c.Properties)),
		Source:      source,
	}
	if c.Lifecycle != nil {
		def.Lifecycle = &config.Lifecycle{Factory: c.Lifecycle.Factory}
	}

	for _, p := range c.Properties {
		if _, dup := def.Properties[p.Name]; dup {
			return nil, fmt.Errorf("component '%s': property '%s' declared more than once", c.Type, p.Name)
		}
		prop, err := translatePropertyDefinition(p, c.Type)
		if err != nil {
			return nil, err
		}
		def.Properties[p.Name] = prop
	}
	return def, nil
}

// mergeInstance folds the attributes of one declaration into the model,
// creating the instance on first sight. Later declarations win property by
// property.
func mergeInstance(model *config.Model, index map[string]*config.Instance, typ, name string, body hcl.Body, source string) error {
	if !instanceNamePattern.MatchString(name) {
		return fmt.Errorf("%s: invalid instance name %q: must start with a letter or underscore and contain only letters, digits, '_' or '-'", source, name)
	}

	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("%s: instance '%s': %w", source, name, diags)
	}

	inst, exists := index[name]
	if !exists {
		inst = &config.Instance{
			Type:       typ,
			Name:       name,
			Properties: make(map[string]hcl.Expression),
			Sources:    make(map[string]string),
			Source:     source,
		}
		index[name] = inst
		model.Instances = append(model.Instances, inst)
	} else if inst.Type != typ {
		return fmt.Errorf("%s: instance '%s' redeclared as type '%s', previously declared as '%s' in %s", source, name, typ, inst.Type, inst.Source)
	}

	for attrName, attr := range attrs {
		inst.Properties[attrName] = attr.Expr
		inst.Sources[attrName] = source
	}
	return nil
}
