package app

import (
	"github.com/vk/gridlaunch/internal/framework"
	"github.com/vk/gridlaunch/internal/registry"
	"github.com/vk/gridlaunch/modules/counter"
	"github.com/vk/gridlaunch/modules/env_vars"
	"github.com/vk/gridlaunch/modules/http_client"
	"github.com/vk/gridlaunch/modules/object_upload"
	"github.com/vk/gridlaunch/modules/print"
	"github.com/vk/gridlaunch/modules/socketio"
	"github.com/vk/gridlaunch/modules/sqlite_sink"
)

// coreModules is the definitive list of all modules that are compiled into
// the gridlaunch binary.
var coreModules = []registry.Module{
	framework.Module{},
	counter.Module{},
	env_vars.Module{},
	print.Module{},
	http_client.Module{},
	sqlite_sink.Module{},
	object_upload.Module{},
	socketio.Module{},
}

// CoreModules returns a copy of the compiled-in modules.
func CoreModules() []registry.Module {
	return append([]registry.Module(nil), coreModules...)
}
