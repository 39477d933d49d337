package framework

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/hcl"
	"github.com/vk/gridlaunch/internal/registry"
)

const testManifest = `
component "Recorder" {
	lifecycle {
		factory = "NewRecorder"
	}
	property "fail_at" {
		type    = number
		default = -1
	}
	property "end_at" {
		type    = number
		default = -1
	}
	property "store" {
		type    = string
		default = ""
	}
}

component "Store" {
	kind = "service"
	lifecycle {
		factory = "NewStore"
	}
}
`

// journal records lifecycle calls across all components of one test.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(call string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, call)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

type recorderProps struct {
	FailAt int64  `prop:"fail_at"`
	EndAt  int64  `prop:"end_at"`
	Store  string `prop:"store"`
}

type recorder struct {
	component.Base
	props    *recorderProps
	journal  *journal
	store    *store
	executed atomic.Int64
	block    chan struct{}
}

func (r *recorder) Initialize(ctx context.Context) error {
	r.journal.add("init:" + r.Name())
	return nil
}

func (r *recorder) Execute(ctx context.Context, evt *component.Event) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if evt.Number == r.props.EndAt {
		return component.ErrEndOfInput
	}
	if evt.Number == r.props.FailAt {
		return errors.New("boom")
	}
	r.executed.Add(1)
	if r.store != nil {
		r.store.hits.Add(1)
	}
	return nil
}

func (r *recorder) Finalize(ctx context.Context) error {
	r.journal.add("finalize:" + r.Name())
	return nil
}

type store struct {
	component.Base
	hits atomic.Int64
}

type fixture struct {
	reg       *registry.Registry
	journal   *journal
	recorders map[string]*recorder
	stores    map[string]*store
	block     chan struct{}
}

func newFixture(t *testing.T, options string) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		journal:   &journal{},
		recorders: make(map[string]*recorder),
		stores:    make(map[string]*store),
	}

	reg := registry.New()
	Module{}.Register(reg)
	reg.RegisterManifest("test.hcl", []byte(testManifest))
	reg.RegisterFactory("NewRecorder", &registry.RegisteredComponent{
		NewProps:  func() any { return new(recorderProps) },
		PropsType: reflect.TypeOf(recorderProps{}),
		New: func(ctx context.Context, env component.Env, props any) (component.Component, error) {
			p := props.(*recorderProps)
			r := &recorder{Base: component.Base{InstanceName: env.Name}, props: p, journal: f.journal, block: f.block}
			if p.Store != "" {
				svc, ok := env.Service(p.Store)
				if !ok {
					return nil, errors.New("store not found")
				}
				r.store = svc.(*store)
			}
			f.recorders[env.Name] = r
			return r, nil
		},
	})
	reg.RegisterFactory("NewStore", &registry.RegisteredComponent{
		New: func(ctx context.Context, env component.Env, props any) (component.Component, error) {
			s := &store{Base: component.Base{InstanceName: env.Name}}
			f.stores[env.Name] = s
			return s, nil
		},
	})

	loader := hcl.NewLoader(map[string]string{})
	defs, err := loader.LoadManifests(ctx, reg.Manifests()...)
	require.NoError(t, err)
	require.NoError(t, reg.PopulateDefinitions(defs))
	require.NoError(t, reg.ValidateRegistry(ctx))

	model, conv, err := loader.Load(ctx, config.File{Name: "job.hcl", Bytes: []byte(options)})
	require.NoError(t, err)
	require.NoError(t, reg.Configure(ctx, model, conv))
	f.reg = reg
	return f
}

func (f *fixture) run(t *testing.T, ctx context.Context) (Status, error, *EventLoop) {
	t.Helper()
	settings, err := SettingsFrom(ctx, f.reg)
	require.NoError(t, err)
	loop := New(f.reg, settings)
	status, runErr := loop.Run(ctx)
	return status, runErr, loop
}

func TestRun_ProcessesEventsAndOrdersLifecycle(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	f := newFixture(t, `
		application {
			events   = 5
			sequence = ["first", "second"]
		}
		configure "Recorder" "first" {}
		configure "Recorder" "second" {}
	`)

	// --- Act ---
	status, err, loop := f.run(t, context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status)
	require.EqualValues(t, 5, f.recorders["first"].executed.Load())
	require.EqualValues(t, 5, f.recorders["second"].executed.Load())
	require.Equal(t, []string{"init:first", "init:second", "finalize:second", "finalize:first"}, f.journal.list())

	snap := loop.Progress()
	require.Equal(t, PhaseDone, snap.Phase)
	require.EqualValues(t, 5, snap.Processed)
	require.Equal(t, "success", snap.Status)
}

func TestRun_EndOfInputStopsUnboundedRun(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
		application {
			sequence = ["src"]
		}
		configure "Recorder" "src" {
			end_at = 7
		}
	`)

	status, err, _ := f.run(t, context.Background())

	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status)
	require.EqualValues(t, 7, f.recorders["src"].executed.Load())
}

func TestRun_FailureStopsRunAndFinalizes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
		application {
			events   = 10
			sequence = ["alg"]
		}
		configure "Recorder" "alg" {
			fail_at = 3
		}
	`)

	status, err, _ := f.run(t, context.Background())

	require.Equal(t, StatusFailure, status)
	require.ErrorContains(t, err, "event 3: alg: boom")
	require.Contains(t, f.journal.list(), "finalize:alg")
}

func TestRun_ContinueOnErrorCountsFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
		application {
			events        = 6
			workers       = 3
			stop_on_error = false
			sequence      = ["alg"]
		}
		configure "Recorder" "alg" {
			fail_at = 2
		}
	`)

	status, err, loop := f.run(t, context.Background())

	require.Equal(t, StatusFailure, status)
	require.ErrorContains(t, err, "1 events failed")
	require.EqualValues(t, 5, loop.Progress().Processed)
	require.EqualValues(t, 1, loop.Progress().Failed)
}

func TestRun_CancelIsUserInterrupt(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
		application {
			sequence = ["alg"]
		}
		configure "Recorder" "alg" {}
	`)
	f.block = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err, _ := f.run(t, ctx)

	require.NoError(t, err)
	require.Equal(t, StatusUserInterrupt, status)
	require.Contains(t, f.journal.list(), "finalize:alg", "finalizers run after an interrupt")
}

func TestRun_ServicesAreSharedWithAlgorithms(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `
		application {
			events   = 4
			workers  = 2
			sequence = ["a", "b"]
		}
		configure "Store" "db" {}
		configure "Recorder" "a" {
			store = "db"
		}
		configure "Recorder" "b" {
			store = "db"
		}
	`)

	status, err, _ := f.run(t, context.Background())

	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status)
	require.EqualValues(t, 8, f.stores["db"].hits.Load())
}

func TestRun_ConfigErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		options  string
		errorMsg string
	}{
		{
			name:     "unknown sequence entry",
			options:  "application {\n events = 1\n sequence = [\"ghost\"]\n}",
			errorMsg: "sequence references 'ghost', which is not configured",
		},
		{
			name: "service in sequence",
			options: `
				application {
					events   = 1
					sequence = ["db"]
				}
				configure "Store" "db" {}
			`,
			errorMsg: "which is a service, not an algorithm",
		},
		{
			name: "duplicate sequence entry",
			options: `
				application {
					events   = 1
					sequence = ["a", "a"]
				}
				configure "Recorder" "a" {}
			`,
			errorMsg: "sequence lists 'a' more than once",
		},
		{
			name:     "unbounded without sequence",
			options:  `application {}`,
			errorMsg: "events = -1 needs a sequence",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, tc.options)
			status, err, _ := f.run(t, context.Background())
			require.Equal(t, StatusConfigError, status)
			require.ErrorContains(t, err, tc.errorMsg)
		})
	}
}

func TestSettingsFrom_Validates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `application { workers = 0 }`)
	_, err := SettingsFrom(context.Background(), f.reg)
	require.ErrorContains(t, err, "workers must be at least 1")

	f = newFixture(t, `application { events = 12 }`)
	s, err := SettingsFrom(context.Background(), f.reg)
	require.NoError(t, err)
	require.EqualValues(t, 12, s.Events)
	require.Equal(t, 1, s.Workers)
	require.Equal(t, "info", s.OutputLevel)
	require.True(t, s.StopOnError)
	require.Empty(t, s.Sequence)
}

func TestStatus_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "interrupted", StatusUserInterrupt.String())
	require.Equal(t, "status(42)", Status(42).String())
}
