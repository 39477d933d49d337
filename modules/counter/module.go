// Package counter provides the Counter algorithm, the simplest event source.
package counter

import (
	"context"
	_ "embed"
	"reflect"

	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/registry"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Props are the Counter properties.
type Props struct {
	Start int64  `prop:"start"`
	Step  int64  `prop:"step"`
	Limit int64  `prop:"limit"`
	Max   int64  `prop:"max"`
	Key   string `prop:"key"`
}

// Counter writes a deterministic value per event, so it behaves the same
// with any number of workers.
type Counter struct {
	component.Base
	props Props
	key   string
}

// New creates a Counter.
func New(ctx context.Context, env component.Env, props any) (component.Component, error) {
	p := *props.(*Props)
	if p.Limit < 0 && p.Max >= 0 {
		p.Limit = p.Max
	}
	key := p.Key
	if key == "" {
		key = env.Name + ".count"
	}
	return &Counter{Base: component.Base{InstanceName: env.Name}, props: p, key: key}, nil
}

// Execute implements component.Algorithm.
func (c *Counter) Execute(ctx context.Context, evt *component.Event) error {
	if c.props.Limit >= 0 && evt.Number >= c.props.Limit {
		return component.ErrEndOfInput
	}
	evt.Put(c.key, c.props.Start+c.props.Step*evt.Number)
	return nil
}

// Register registers the manifest and factory with the registry.
func (Module) Register(r *registry.Registry) {
	r.RegisterManifest("counter/manifest.hcl", manifest)
	r.RegisterFactory("NewCounter", &registry.RegisteredComponent{
		NewProps:  func() any { return new(Props) },
		PropsType: reflect.TypeOf(Props{}),
		New:       New,
	})
}
