package testutil

import (
	"context"
	"reflect"
	"sync"

	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/registry"
)

// RecorderManifest declares the Recorder test component. Its properties
// cover every scalar and collection type so that tests can check how values
// reach Go code.
const RecorderManifest = `
component "Recorder" {
  description = "Records the properties it was built with and the events it saw."

  lifecycle {
    factory = "NewRecorder"
  }

  property "label" {
    type    = string
    default = "none"
  }

  property "count" {
    type    = number
    default = 1
  }

  property "enabled" {
    type    = bool
    default = false
  }

  property "tags" {
    type    = list(string)
    default = []
  }

  property "limits" {
    type    = map(number)
    default = {}
  }

  property "end_at" {
    type    = number
    default = -1
  }

  property "old_label" {
    type       = string
    default    = ""
    deprecated = "use label"
  }
}
`

// RecorderProps are the Recorder properties.
type RecorderProps struct {
	Label    string           `prop:"label"`
	Count    int              `prop:"count"`
	Enabled  bool             `prop:"enabled"`
	Tags     []string         `prop:"tags"`
	Limits   map[string]int64 `prop:"limits"`
	EndAt    int64            `prop:"end_at"`
	OldLabel string           `prop:"old_label"`
}

// Recorder is an algorithm that keeps its props and counts events.
type Recorder struct {
	component.Base
	Props RecorderProps

	mu     sync.Mutex
	events []int64
}

// Events returns the numbers of the events executed so far, in order of
// execution.
func (r *Recorder) Events() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.events...)
}

// Execute implements component.Algorithm.
func (r *Recorder) Execute(ctx context.Context, evt *component.Event) error {
	if r.Props.EndAt >= 0 && evt.Number >= r.Props.EndAt {
		return component.ErrEndOfInput
	}
	r.mu.Lock()
	r.events = append(r.events, evt.Number)
	r.mu.Unlock()
	return nil
}

// RecorderModule registers the Recorder and remembers every instance it
// built, by name.
type RecorderModule struct {
	mu    sync.Mutex
	built map[string]*Recorder
}

// NewRecorderModule creates an empty module.
func NewRecorderModule() *RecorderModule {
	return &RecorderModule{built: make(map[string]*Recorder)}
}

// Built returns the recorder built for the named instance.
func (m *RecorderModule) Built(name string) (*Recorder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.built[name]
	return r, ok
}

// Register implements registry.Module.
func (m *RecorderModule) Register(r *registry.Registry) {
	r.RegisterManifest("testutil/recorder.hcl", []byte(RecorderManifest))
	r.RegisterFactory("NewRecorder", &registry.RegisteredComponent{
		NewProps:  func() any { return new(RecorderProps) },
		PropsType: reflect.TypeOf(RecorderProps{}),
		New: func(ctx context.Context, env component.Env, props any) (component.Component, error) {
			rec := &Recorder{Base: component.Base{InstanceName: env.Name}, Props: *props.(*RecorderProps)}
			m.mu.Lock()
			m.built[env.Name] = rec
			m.mu.Unlock()
			return rec, nil
		},
	})
}
