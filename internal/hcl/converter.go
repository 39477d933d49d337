package hcl

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// PropTag is the struct tag that binds a Go field to a manifest property.
const PropTag = "prop"

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct {
	evalCtx *hcl.EvalContext
}

// NewConverter creates a new HCL converter. Expressions are evaluated with
// `env` bound to the given environment, or to the process environment when
// env is nil.
func NewConverter(env map[string]string) *Converter {
	if env == nil {
		env = make(map[string]string)
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				env[k] = v
			}
		}
	}
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	return &Converter{
		evalCtx: &hcl.EvalContext{
			Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
		},
	}
}

// Evaluate computes the value of an option file expression.
func (c *Converter) Evaluate(ctx context.Context, expr hcl.Expression) (cty.Value, error) {
	val, diags := expr.Value(c.evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return val, nil
}

// ParseValue converts command-line text into a value of the given type.
// Strings are taken verbatim, numbers and bools are converted from their
// literal text, and everything else is read as an HCL expression. A list
// or set of strings also accepts a bare comma-separated form.
func (c *Converter) ParseValue(ctx context.Context, raw string, ty cty.Type) (cty.Value, error) {
	switch {
	case ty == cty.String:
		return cty.StringVal(raw), nil
	case ty == cty.Number, ty == cty.Bool:
		val, err := convert.Convert(cty.StringVal(strings.TrimSpace(raw)), ty)
		if err != nil {
			return cty.NilVal, fmt.Errorf("%q is not a valid %s", raw, ty.FriendlyName())
		}
		return val, nil
	case ty == cty.DynamicPseudoType:
		val, err := c.parseExpression(raw)
		if err != nil {
			// Anything that is not an expression is a plain string.
			return cty.StringVal(raw), nil
		}
		return val, nil
	}

	if strings.TrimSpace(raw) == "" {
		if ty.IsMapType() {
			return cty.MapValEmpty(ty.ElementType()), nil
		}
		return convert.Convert(cty.EmptyTupleVal, ty)
	}

	val, err := c.parseExpression(raw)
	if err == nil {
		var converted cty.Value
		if converted, err = convert.Convert(val, ty); err == nil {
			return converted, nil
		}
	}

	if (ty.IsListType() || ty.IsSetType()) && ty.ElementType() == cty.String {
		parts := strings.Split(raw, ",")
		elems := make([]cty.Value, 0, len(parts))
		for _, p := range parts {
			elems = append(elems, cty.StringVal(strings.TrimSpace(p)))
		}
		return convert.Convert(cty.TupleVal(elems), ty)
	}
	return cty.NilVal, fmt.Errorf("%q is not a valid %s: %w", raw, ty.FriendlyName(), err)
}

func (c *Converter) parseExpression(raw string) (cty.Value, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "<command line>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	val, diags := expr.Value(c.evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return val, nil
}

// DecodeProperties populates the Go struct pointed to by target. Every
// exported field tagged with `prop:"name"` receives the effective value of
// that property: the explicit value when set, otherwise the declared default.
// Fields whose property has neither keep their zero value.
func (c *Converter) DecodeProperties(
	ctx context.Context,
	target any,
	values map[string]cty.Value,
	defs map[string]*config.PropertyDefinition,
) error {
	logger := ctxlog.FromContext(ctx)

	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", target)
	}
	structVal = structVal.Elem()
	if structVal.Kind() != reflect.Struct {
		return fmt.Errorf("decode target must point to a struct, got %T", target)
	}
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		name := PropertyName(field)
		if name == "" {
			continue
		}
		def, ok := defs[name]
		if !ok {
			return fmt.Errorf("field %s is bound to undeclared property '%s'", field.Name, name)
		}

		val, set := values[name]
		if !set {
			val = def.DefaultValue()
		}
		if val.IsNull() {
			continue
		}

		if err := c.decode(ctx, val, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("property '%s': %w", name, err)
		}
	}
	logger.Debug("Decoded properties.", "type", structType.String())
	return nil
}

// decode handles the conversion and decoding of a cty.Value into a Go pointer.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	target := reflect.ValueOf(goVal).Elem()

	impliedType, err := gocty.ImpliedType(target.Interface())
	if err != nil {
		logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.", "go_type", target.Type().String(), "error", err)
		return gocty.FromCtyValue(val, goVal)
	}

	converted, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, goVal)
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

// PropertyName returns the property a struct field is bound to, or "" if
// the field is not bound.
func PropertyName(field reflect.StructField) string {
	if !field.IsExported() {
		return ""
	}
	name, _, _ := strings.Cut(field.Tag.Get(PropTag), ",")
	if name == "-" {
		return ""
	}
	return name
}
