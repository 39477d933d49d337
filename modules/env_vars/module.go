package env_vars

import (
	"context"
	_ "embed"
	"os"
	"reflect"
	"strings"

	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/registry"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Props defines the EnvVars properties.
type Props struct {
	Prefix      string `prop:"prefix"`
	StripPrefix bool   `prop:"strip_prefix"`
	Key         string `prop:"key"`
}

// EnvVars captures the environment once, at initialization.
type EnvVars struct {
	component.Base
	props   Props
	key     string
	environ func() []string
	vars    map[string]string
}

// New creates an EnvVars algorithm.
func New(ctx context.Context, env component.Env, props any) (component.Component, error) {
	p := *props.(*Props)
	key := p.Key
	if key == "" {
		key = env.Name
	}
	return &EnvVars{Base: component.Base{InstanceName: env.Name}, props: p, key: key, environ: os.Environ}, nil
}

// Initialize implements component.Initializer.
func (e *EnvVars) Initialize(ctx context.Context) error {
	e.vars = make(map[string]string)
	for _, kv := range e.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.props.Prefix) {
			continue
		}
		if e.props.StripPrefix {
			name = strings.TrimPrefix(name, e.props.Prefix)
		}
		e.vars[name] = value
	}
	return nil
}

// Execute implements component.Algorithm. Every event gets its own copy.
func (e *EnvVars) Execute(ctx context.Context, evt *component.Event) error {
	out := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	evt.Put(e.key, out)
	return nil
}

// Register registers the manifest and factory with the registry.
func (Module) Register(r *registry.Registry) {
	r.RegisterManifest("env_vars/manifest.hcl", manifest)
	r.RegisterFactory("NewEnvVars", &registry.RegisteredComponent{
		NewProps:  func() any { return new(Props) },
		PropsType: reflect.TypeOf(Props{}),
		New:       New,
	})
}
