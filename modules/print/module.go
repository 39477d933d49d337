package print

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/registry"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Props defines the Printer properties.
type Props struct {
	Message string   `prop:"message"`
	Keys    []string `prop:"keys"`
	Every   int64    `prop:"every"`
}

// Printer writes one line per selected event to its output.
type Printer struct {
	component.Base
	props Props

	mu  sync.Mutex
	out io.Writer
}

// New creates a Printer writing to stdout.
func New(ctx context.Context, env component.Env, props any) (component.Component, error) {
	return newPrinter(env.Name, *props.(*Props), os.Stdout)
}

func newPrinter(name string, p Props, out io.Writer) (*Printer, error) {
	if p.Every < 1 {
		return nil, fmt.Errorf("every must be at least 1, got %d", p.Every)
	}
	return &Printer{Base: component.Base{InstanceName: name}, props: p, out: out}, nil
}

// Execute implements component.Algorithm.
func (p *Printer) Execute(ctx context.Context, evt *component.Event) error {
	if evt.Number%p.props.Every != 0 {
		return nil
	}

	keys := p.props.Keys
	if len(keys) == 0 {
		keys = evt.Keys()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%d]", evt.Number)
	if p.props.Message != "" {
		fmt.Fprintf(&b, " %s", p.props.Message)
	}
	for _, k := range keys {
		v, ok := evt.Get(k)
		if !ok {
			fmt.Fprintf(&b, " %s=(null)", k)
			continue
		}
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	b.WriteByte('\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.out, b.String())
	return err
}

// Register registers the manifest and factory with the registry.
func (Module) Register(r *registry.Registry) {
	r.RegisterManifest("print/manifest.hcl", manifest)
	r.RegisterFactory("NewPrinter", &registry.RegisteredComponent{
		NewProps:  func() any { return new(Props) },
		PropsType: reflect.TypeOf(Props{}),
		New:       New,
	})
}
