package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vk/gridlaunch/internal/ctxlog"
	"github.com/vk/gridlaunch/internal/hcl"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateRegistry performs a strict parity check between manifests and Go code.
// It checks that factories exist and that every manifest property has a
// tagged Go field of a compatible type, and vice versa.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, componentType := range r.Types() {
		def := r.DefinitionRegistry[componentType]
		if def.Lifecycle == nil {
			// Settings-only component, nothing to compare against.
			continue
		}
		handler, ok := r.FactoryRegistry[def.Lifecycle.Factory]
		if !ok {
			errs = append(errs, fmt.Sprintf("component '%s': factory '%s' is not registered", componentType, def.Lifecycle.Factory))
			continue
		}

		if handler.PropsType == nil {
			if len(def.Properties) > 0 {
				errs = append(errs, fmt.Sprintf("component '%s': manifest declares properties, but Go factory has no property struct", componentType))
			}
			continue
		}

		goProps := make(map[string]reflect.StructField)
		for i := 0; i < handler.PropsType.NumField(); i++ {
			field := handler.PropsType.Field(i)
			if name := hcl.PropertyName(field); name != "" {
				goProps[name] = field
			}
		}

		// Check for presence mismatches
		for name := range goProps {
			if _, ok := def.Properties[name]; !ok {
				errs = append(errs, fmt.Sprintf("component '%s': Go struct has field for property '%s' which is not declared in manifest", componentType, name))
			}
		}
		for name := range def.Properties {
			if _, ok := goProps[name]; !ok {
				errs = append(errs, fmt.Sprintf("component '%s': manifest declares property '%s' which is not found in Go struct", componentType, name))
			}
		}

		// Check for type mismatches
		for name, propDef := range def.Properties {
			goField, ok := goProps[name]
			if !ok {
				continue
			}

			if propDef.Type.Equals(cty.DynamicPseudoType) {
				logger.Warn("Manifest has property with 'type = any', which disables static type checking.", "component", componentType, "property", name)
				continue
			}

			goType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("component '%s', property '%s': could not imply cty type from Go field type %s: %v", componentType, name, goField.Type, err))
				continue
			}
			if !propDef.Type.Equals(goType) {
				errs = append(errs, fmt.Sprintf("component '%s', property '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' provides '%s'",
					componentType, name, propDef.Type.FriendlyName(), goField.Name, goType.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
