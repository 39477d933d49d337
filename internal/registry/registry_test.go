package registry

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/hcl"
	"github.com/zclconf/go-cty/cty"
)

const testManifest = `
component "Application" {
	property "events" {
		type    = number
		default = -1
	}
}

component "Counter" {
	lifecycle {
		factory = "NewCounter"
	}
	property "start" {
		type    = number
		default = 0
	}
	property "label" {
		type = string
	}
	property "old_start" {
		type       = number
		deprecated = "use start"
	}
}
`

type counterProps struct {
	Start    int    `prop:"start"`
	Label    string `prop:"label"`
	OldStart int    `prop:"old_start"`
}

type counter struct {
	component.Base
	props *counterProps
}

func newTestRegistry(t *testing.T, options string) *Registry {
	t.Helper()
	ctx := context.Background()
	loader := hcl.NewLoader(map[string]string{})

	reg := New()
	reg.RegisterManifest("test.hcl", []byte(testManifest))
	reg.RegisterFactory("NewCounter", &RegisteredComponent{
		NewProps:  func() any { return new(counterProps) },
		PropsType: reflect.TypeOf(counterProps{}),
		New: func(ctx context.Context, env component.Env, props any) (component.Component, error) {
			return &counter{Base: component.Base{InstanceName: env.Name}, props: props.(*counterProps)}, nil
		},
	})

	defs, err := loader.LoadManifests(ctx, reg.Manifests()...)
	require.NoError(t, err)
	require.NoError(t, reg.PopulateDefinitions(defs))
	require.NoError(t, reg.ValidateRegistry(ctx))

	model, conv, err := loader.Load(ctx, config.File{Name: "options.hcl", Bytes: []byte(options)})
	require.NoError(t, err)
	require.NoError(t, reg.Configure(ctx, model, conv))
	return reg
}

func TestConfigure_CreatesInstancesWithOrigins(t *testing.T) {
	t.Parallel()

	// --- Arrange & Act ---
	reg := newTestRegistry(t, `
		configure "Counter" "gen" {
			start = 5
		}
	`)

	// --- Assert ---
	require.Len(t, reg.Instances(), 2)
	require.Equal(t, config.ApplicationName, reg.Instances()[0].Name, "application instance should always exist")

	gen, ok := reg.Instance("gen")
	require.True(t, ok)
	require.True(t, gen.Value("start").Equals(cty.NumberIntVal(5)).True())
	require.Equal(t, "options.hcl", gen.Origin("start"))
	require.True(t, gen.IsSet("start"))

	require.True(t, gen.Value("label").IsNull())
	require.Equal(t, OriginDefault, gen.Origin("label"))
	require.Equal(t, []string{"label", "old_start", "start"}, gen.PropertyNames())
}

func TestConfigure_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		options  string
		errorMsg string
	}{
		{
			name:     "unknown type",
			options:  `configure "Missing" "x" {}`,
			errorMsg: "instance 'x' has unknown component type 'Missing'",
		},
		{
			name:     "unknown property",
			options:  `configure "Counter" "x" { stop = 1 }`,
			errorMsg: "Counter 'x' has no property 'stop'",
		},
		{
			name:     "wrong type",
			options:  `configure "Counter" "x" { start = "many" }`,
			errorMsg: "x.start: expected number",
		},
		{
			name:     "undefined variable",
			options:  `configure "Counter" "x" { label = nope }`,
			errorMsg: "x.label",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			loader := hcl.NewLoader(map[string]string{})
			reg := New()
			defs, err := loader.LoadManifests(ctx, config.File{Name: "m.hcl", Bytes: []byte(testManifest)})
			require.NoError(t, err)
			require.NoError(t, reg.PopulateDefinitions(defs))

			model, conv, err := loader.Load(ctx, config.File{Name: "o.hcl", Bytes: []byte(tc.options)})
			require.NoError(t, err)

			err = reg.Configure(ctx, model, conv)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.errorMsg)
		})
	}
}

func TestInstanceSet_ConvertsAndRecordsOrigin(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t, `configure "Counter" "gen" {}`)
	gen, _ := reg.Instance("gen")

	require.NoError(t, gen.Set("start", cty.StringVal("12"), OriginCommandLine))
	require.True(t, gen.Value("start").Equals(cty.NumberIntVal(12)).True())
	require.Equal(t, OriginCommandLine, gen.Origin("start"))

	err := gen.Set("nope", cty.True, OriginCommandLine)
	require.ErrorContains(t, err, "available: label, old_start, start")

	snap := gen.Snapshot()
	require.Equal(t, OriginCommandLine, snap.Origins["start"])
	require.Equal(t, OriginDefault, snap.Origins["label"])
}

func TestBuild_DecodesEffectiveValues(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reg := newTestRegistry(t, `
		configure "Counter" "gen" {
			label = "events"
		}
	`)
	gen, _ := reg.Instance("gen")
	require.NoError(t, gen.Set("start", cty.NumberIntVal(9), OriginCommandLine))

	// --- Act ---
	comp, err := reg.Build(context.Background(), "gen", nil)

	// --- Assert ---
	require.NoError(t, err)
	c := comp.(*counter)
	require.Equal(t, "gen", c.Name())
	require.Equal(t, &counterProps{Start: 9, Label: "events"}, c.props)

	_, err = reg.Build(context.Background(), config.ApplicationName, nil)
	require.ErrorContains(t, err, "no factory declared")

	_, err = reg.Build(context.Background(), "ghost", nil)
	require.ErrorContains(t, err, "no instance named 'ghost'")
}

func TestValidateRegistry_ParityErrors(t *testing.T) {
	t.Parallel()

	type wrongProps struct {
		Start string `prop:"start"`
		Extra bool   `prop:"extra"`
	}

	ctx := context.Background()
	reg := New()
	defs, err := hcl.NewLoader(map[string]string{}).LoadManifests(ctx, config.File{Name: "m.hcl", Bytes: []byte(`
		component "Counter" {
			lifecycle {
				factory = "NewCounter"
			}
			property "start" {
				type = number
			}
			property "label" {
				type = string
			}
		}
		component "Orphan" {
			lifecycle {
				factory = "NewOrphan"
			}
		}
	`)})
	require.NoError(t, err)
	require.NoError(t, reg.PopulateDefinitions(defs))
	reg.RegisterFactory("NewCounter", &RegisteredComponent{
		NewProps:  func() any { return new(wrongProps) },
		PropsType: reflect.TypeOf(wrongProps{}),
	})

	err = reg.ValidateRegistry(ctx)

	require.Error(t, err)
	msg := err.Error()
	require.Contains(t, msg, "factory 'NewOrphan' is not registered")
	require.Contains(t, msg, "Go struct has field for property 'extra'")
	require.Contains(t, msg, "manifest declares property 'label'")
	require.Contains(t, msg, "Manifest requires 'number' but Go struct field 'Start' provides 'string'")
}

func TestRegisterFactory_PanicsOnDuplicate(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.RegisterFactory("X", &RegisteredComponent{})
	require.Panics(t, func() { reg.RegisterFactory("X", &RegisteredComponent{}) })
}
