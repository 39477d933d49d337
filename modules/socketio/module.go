// Package socketio streams event data to a socket.io server.
package socketio

import (
	_ "embed"
	"reflect"

	"github.com/vk/gridlaunch/internal/registry"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the client service and the emitter.
func (Module) Register(r *registry.Registry) {
	r.RegisterManifest("socketio/manifest.hcl", manifest)
	r.RegisterFactory("NewSocketIOClient", &registry.RegisteredComponent{
		NewProps:  func() any { return new(ClientProps) },
		PropsType: reflect.TypeOf(ClientProps{}),
		New:       NewClient,
	})
	r.RegisterFactory("NewSocketIOEmitter", &registry.RegisteredComponent{
		NewProps:  func() any { return new(EmitterProps) },
		PropsType: reflect.TypeOf(EmitterProps{}),
		New:       NewEmitter,
	})
}
