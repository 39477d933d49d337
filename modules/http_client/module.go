// Package http_client provides a shareable HTTP client service and the
// HttpProbe algorithm that uses it.
package http_client

import (
	_ "embed"
	"reflect"

	"github.com/vk/gridlaunch/internal/registry"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the registry.Module interface.
type Module struct{}

// Register registers both component types with the registry.
func (Module) Register(r *registry.Registry) {
	r.RegisterManifest("http_client/manifest.hcl", manifest)
	r.RegisterFactory("NewHttpClient", &registry.RegisteredComponent{
		NewProps:  func() any { return new(ClientProps) },
		PropsType: reflect.TypeOf(ClientProps{}),
		New:       NewClient,
	})
	r.RegisterFactory("NewHttpProbe", &registry.RegisteredComponent{
		NewProps:  func() any { return new(ProbeProps) },
		PropsType: reflect.TypeOf(ProbeProps{}),
		New:       NewProbe,
	})
}
