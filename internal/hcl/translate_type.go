// This file contains the logic for parsing manifest type expressions (e.g.,
// `string`, `list(number)`) into their corresponding cty.Type objects.

package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

var primitiveTypes = map[string]cty.Type{
	"string": cty.String,
	"number": cty.Number,
	"bool":   cty.Bool,
	"any":    cty.DynamicPseudoType,
}

var collectionTypes = map[string]func(cty.Type) cty.Type{
	"list": cty.List,
	"set":  cty.Set,
	"map":  cty.Map,
}

// typeExprToCtyType converts a type expression into its cty.Type equivalent.
// A missing expression means `any`.
func typeExprToCtyType(expr hcl.Expression) (cty.Type, error) {
	if expr == nil {
		return cty.DynamicPseudoType, nil
	}

	if keyword := hcl.ExprAsKeyword(expr); keyword != "" {
		ty, ok := primitiveTypes[keyword]
		if !ok {
			return cty.DynamicPseudoType, fmt.Errorf("unknown primitive type %q", keyword)
		}
		return ty, nil
	}

	call, diags := hcl.ExprCall(expr)
	if diags.HasErrors() {
		return cty.DynamicPseudoType, fmt.Errorf("unsupported type expression: expected a keyword such as string or a constructor such as list(string)")
	}

	construct, ok := collectionTypes[call.Name]
	if !ok {
		return cty.DynamicPseudoType, fmt.Errorf("unknown type constructor %q", call.Name)
	}
	if len(call.Arguments) != 1 {
		return cty.DynamicPseudoType, fmt.Errorf("type constructor %q requires exactly one argument, got %d", call.Name, len(call.Arguments))
	}

	elem, err := typeExprToCtyType(call.Arguments[0])
	if err != nil {
		return cty.DynamicPseudoType, err
	}
	if elem == cty.DynamicPseudoType {
		return cty.DynamicPseudoType, fmt.Errorf("collection types cannot contain type 'any'")
	}
	return construct(elem), nil
}
