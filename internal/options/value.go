package options

import (
	"context"
	"fmt"

	"github.com/vk/gridlaunch/internal/config"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// propertyValue adapts one instance property to the pflag.Value interface.
// It only holds the parsed value; nothing reaches the instance until Apply.
type propertyValue struct {
	def  *config.PropertyDefinition
	conv config.Converter
	// current is what String reports: the effective value at synthesis
	// time, replaced by the parsed value once the flag is set.
	current cty.Value
	parsed  *cty.Value
}

func (v *propertyValue) String() string {
	return Render(v.current)
}

func (v *propertyValue) Set(raw string) error {
	val, err := v.conv.ParseValue(context.Background(), raw, v.def.Type)
	if err != nil {
		return err
	}
	v.parsed = &val
	v.current = val
	return nil
}

func (v *propertyValue) Type() string {
	if v.def.Type.Equals(cty.DynamicPseudoType) {
		return "any"
	}
	return v.def.Type.FriendlyName()
}

// Render formats a value for help output and listings: strings bare,
// everything else as JSON.
func Render(v cty.Value) string {
	switch {
	case v.IsNull():
		return ""
	case !v.IsWhollyKnown():
		return "(unknown)"
	case v.Type().Equals(cty.String):
		return v.AsString()
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}
