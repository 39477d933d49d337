// Package object_upload publishes a run summary to object storage.
package object_upload

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/registry"
	"github.com/vk/gridlaunch/internal/source"
	"gopkg.in/yaml.v3"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Props defines the ObjectUpload properties.
type Props struct {
	Destination string   `prop:"destination"`
	Format      string   `prop:"format"`
	Keys        []string `prop:"keys"`
}

// Putter stores bytes at a URI. *source.Fetcher implements it.
type Putter interface {
	Put(ctx context.Context, uri string, data []byte, contentType string) error
}

// Summary is the uploaded document.
type Summary struct {
	Instance   string           `json:"instance" yaml:"instance"`
	RunID      string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Events     int64            `json:"events" yaml:"events"`
	LastEvent  int64            `json:"last_event" yaml:"last_event"`
	KeyCounts  map[string]int64 `json:"key_counts" yaml:"key_counts"`
	FinishedAt time.Time        `json:"finished_at" yaml:"finished_at"`
}

// Uploader counts keys per event and uploads the summary in Finalize.
type Uploader struct {
	component.Base
	props  Props
	putter Putter

	mu      sync.Mutex
	summary Summary
}

// New creates an ObjectUpload algorithm.
func New(ctx context.Context, env component.Env, props any) (component.Component, error) {
	return newUploader(env, *props.(*Props), source.Default)
}

func newUploader(env component.Env, p Props, putter Putter) (*Uploader, error) {
	if p.Destination == "" {
		return nil, fmt.Errorf("destination is required")
	}
	p.Format = strings.ToLower(p.Format)
	if p.Format != "json" && p.Format != "yaml" {
		return nil, fmt.Errorf("unsupported format %q, expected json or yaml", p.Format)
	}
	return &Uploader{
		Base:   component.Base{InstanceName: env.Name},
		props:  p,
		putter: putter,
		summary: Summary{
			Instance:  env.Name,
			RunID:     env.RunID,
			LastEvent: -1,
			KeyCounts: make(map[string]int64),
		},
	}, nil
}

// Execute implements component.Algorithm.
func (u *Uploader) Execute(ctx context.Context, evt *component.Event) error {
	keys := u.props.Keys
	if len(keys) == 0 {
		keys = evt.Keys()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.summary.Events++
	if evt.Number > u.summary.LastEvent {
		u.summary.LastEvent = evt.Number
	}
	for _, k := range keys {
		if _, ok := evt.Get(k); ok {
			u.summary.KeyCounts[k]++
		}
	}
	return nil
}

// Finalize uploads the summary.
func (u *Uploader) Finalize(ctx context.Context) error {
	u.mu.Lock()
	summary := u.summary
	u.mu.Unlock()
	summary.FinishedAt = time.Now().UTC()

	var (
		data        []byte
		err         error
		contentType string
	)
	switch u.props.Format {
	case "yaml":
		data, err = yaml.Marshal(summary)
		contentType = "application/yaml"
	default:
		data, err = json.MarshalIndent(summary, "", "  ")
		contentType = "application/json"
	}
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return u.putter.Put(ctx, u.props.Destination, data, contentType)
}

// Register registers the manifest and factory with the registry.
func (Module) Register(r *registry.Registry) {
	r.RegisterManifest("object_upload/manifest.hcl", manifest)
	r.RegisterFactory("NewObjectUpload", &registry.RegisteredComponent{
		NewProps:  func() any { return new(Props) },
		PropsType: reflect.TypeOf(Props{}),
		New:       New,
	})
}
