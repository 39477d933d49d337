package hcl

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/zclconf/go-cty/cty"
)

func TestParseValue(t *testing.T) {
	t.Parallel()

	conv := NewConverter(map[string]string{"USER": "tester"})

	testCases := []struct {
		name     string
		raw      string
		ty       cty.Type
		expected cty.Value
		errorMsg string
	}{
		{name: "string is literal", raw: `"quoted" text`, ty: cty.String, expected: cty.StringVal(`"quoted" text`)},
		{name: "number", raw: " 42 ", ty: cty.Number, expected: cty.NumberIntVal(42)},
		{name: "fractional number", raw: "0.5", ty: cty.Number, expected: cty.NumberFloatVal(0.5)},
		{name: "bool", raw: "true", ty: cty.Bool, expected: cty.True},
		{name: "invalid number", raw: "many", ty: cty.Number, errorMsg: `"many" is not a valid number`},
		{name: "invalid bool", raw: "maybe", ty: cty.Bool, errorMsg: `"maybe" is not a valid bool`},
		{
			name:     "list expression",
			raw:      `["a", "b"]`,
			ty:       cty.List(cty.String),
			expected: cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
		},
		{
			name:     "comma separated list",
			raw:      "gen, out",
			ty:       cty.List(cty.String),
			expected: cty.ListVal([]cty.Value{cty.StringVal("gen"), cty.StringVal("out")}),
		},
		{
			name:     "single bare word list",
			raw:      "gen",
			ty:       cty.List(cty.String),
			expected: cty.ListVal([]cty.Value{cty.StringVal("gen")}),
		},
		{name: "empty list", raw: "", ty: cty.List(cty.String), expected: cty.ListValEmpty(cty.String)},
		{name: "empty map", raw: " ", ty: cty.Map(cty.String), expected: cty.MapValEmpty(cty.String)},
		{
			name:     "number list",
			raw:      "[1, 2]",
			ty:       cty.List(cty.Number),
			expected: cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}),
		},
		{name: "bad number list", raw: "1,2", ty: cty.List(cty.Number), errorMsg: "is not a valid list of number"},
		{
			name:     "map expression with env",
			raw:      `{ owner = env.USER }`,
			ty:       cty.Map(cty.String),
			expected: cty.MapVal(map[string]cty.Value{"owner": cty.StringVal("tester")}),
		},
		{name: "any falls back to string", raw: "hello world", ty: cty.DynamicPseudoType, expected: cty.StringVal("hello world")},
		{name: "any parses expressions", raw: "3", ty: cty.DynamicPseudoType, expected: cty.NumberIntVal(3)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := conv.ParseValue(context.Background(), tc.raw, tc.ty)
			if tc.errorMsg != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errorMsg)
				return
			}
			require.NoError(t, err)
			require.True(t, got.Equals(tc.expected).True(), "expected %#v, got %#v", tc.expected, got)
		})
	}
}

type decodeTarget struct {
	Name    string            `prop:"name"`
	Count   int               `prop:"count"`
	Enabled bool              `prop:"enabled"`
	Tags    []string          `prop:"tags"`
	Labels  map[string]string `prop:"labels"`
	Skipped string
	hidden  string `prop:"hidden"`
}

func TestDecodeProperties_AppliesValuesAndDefaults(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	defaultCount := cty.NumberIntVal(3)
	defs := map[string]*config.PropertyDefinition{
		"name":    {Name: "name", Type: cty.String},
		"count":   {Name: "count", Type: cty.Number, Default: &defaultCount},
		"enabled": {Name: "enabled", Type: cty.Bool},
		"tags":    {Name: "tags", Type: cty.List(cty.String)},
		"labels":  {Name: "labels", Type: cty.Map(cty.String)},
	}
	values := map[string]cty.Value{
		"name": cty.StringVal("gen"),
		"tags": cty.ListVal([]cty.Value{cty.StringVal("x")}),
		// Strings are converted to match the Go field.
		"enabled": cty.StringVal("true"),
	}
	var target decodeTarget

	// --- Act ---
	err := NewConverter(map[string]string{}).DecodeProperties(context.Background(), &target, values, defs)

	// --- Assert ---
	require.NoError(t, err)
	want := decodeTarget{Name: "gen", Count: 3, Enabled: true, Tags: []string{"x"}}
	if diff := cmp.Diff(want, target, cmp.AllowUnexported(decodeTarget{})); diff != "" {
		t.Errorf("unexpected decode result (-want +got):\n%s", diff)
	}
}

func TestDecodeProperties_Errors(t *testing.T) {
	t.Parallel()

	conv := NewConverter(map[string]string{})
	ctx := context.Background()

	var notPointer decodeTarget
	require.ErrorContains(t, conv.DecodeProperties(ctx, notPointer, nil, nil), "non-nil pointer")

	var target decodeTarget
	err := conv.DecodeProperties(ctx, &target, nil, map[string]*config.PropertyDefinition{})
	require.ErrorContains(t, err, "undeclared property 'name'")

	defs := map[string]*config.PropertyDefinition{
		"name":    {Name: "name", Type: cty.String},
		"count":   {Name: "count", Type: cty.Number},
		"enabled": {Name: "enabled", Type: cty.Bool},
		"tags":    {Name: "tags", Type: cty.List(cty.String)},
		"labels":  {Name: "labels", Type: cty.Map(cty.String)},
	}
	err = conv.DecodeProperties(ctx, &target, map[string]cty.Value{"count": cty.NumberFloatVal(1.5)}, defs)
	require.ErrorContains(t, err, "property 'count'")
}

func TestToCtyValue(t *testing.T) {
	t.Parallel()

	conv := NewConverter(map[string]string{})

	val, err := conv.ToCtyValue(map[string]string{"a": "b"})
	require.NoError(t, err)
	require.True(t, val.Equals(cty.MapVal(map[string]cty.Value{"a": cty.StringVal("b")})).True())

	nilVal, err := conv.ToCtyValue(nil)
	require.NoError(t, err)
	require.Equal(t, cty.NilVal, nilVal)
}
