package framework

import (
	_ "embed"

	"github.com/vk/gridlaunch/internal/registry"
)

//go:embed application.hcl
var applicationManifest []byte

// Module registers the Application component, which carries the run loop
// settings. It has no factory: it is configured but never instantiated.
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	r.RegisterManifest("framework/application.hcl", applicationManifest)
}
