package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/ctxlog"
	"github.com/vk/gridlaunch/internal/framework"
	"github.com/vk/gridlaunch/internal/fsutil"
	"github.com/vk/gridlaunch/internal/registry"
	"github.com/vk/gridlaunch/internal/source"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger *slog.Logger
	level  *slog.LevelVar
	runID  string

	config   *Config
	registry *registry.Registry
	fetcher  *source.Fetcher

	httpServer *http.Server
	loop       atomic.Pointer[framework.EventLoop]
}

// NewApp builds the registry from the compiled-in modules (or the given
// ones), loads and validates every manifest, then applies the option files.
// Errors wrapping source.ErrNotFound mean an option file is missing.
func NewApp(logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	level := new(slog.LevelVar)
	if cfg.LogLevel != "" {
		l, err := parseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		level.Set(l)
	}
	logger := newLogger(level, cfg.LogFormat, logW)

	a := &App{
		logger:   logger,
		level:    level,
		runID:    uuid.NewString(),
		config:   cfg,
		registry: registry.New(),
		fetcher:  source.Default,
	}
	a.registry.RunID = a.runID
	a.logger = logger.With("run_id", a.runID)
	ctx := a.Context(context.Background())
	a.logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(a.registry)
	}
	a.logger.Debug("All Go modules registered.", "count", len(modules))

	if err := a.loadManifests(ctx, loader); err != nil {
		return nil, err
	}
	if err := a.registry.ValidateRegistry(ctx); err != nil {
		return nil, err
	}
	a.logger.Debug("Registry validation passed.")

	if err := a.loadOptions(ctx, loader); err != nil {
		return nil, err
	}
	if err := a.SyncLogLevel(); err != nil {
		return nil, err
	}
	return a, nil
}

// Context attaches the app's logger to ctx.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// RunID identifies this launcher invocation in logs and sinks.
func (a *App) RunID() string {
	return a.runID
}

// SyncLogLevel applies app.output_level unless --log-level was given.
func (a *App) SyncLogLevel() error {
	if a.config.LogLevel != "" {
		return nil
	}
	inst, ok := a.registry.Instance(config.ApplicationName)
	if !ok {
		return nil
	}
	v := inst.Value("output_level")
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	l, err := parseLevel(v.AsString())
	if err != nil {
		return fmt.Errorf("%s.output_level: %w", config.ApplicationName, err)
	}
	a.level.Set(l)
	return nil
}

func (a *App) loadManifests(ctx context.Context, loader config.Loader) error {
	files := a.registry.Manifests()
	if a.config.ModulesPath != "" {
		paths, err := fsutil.FindFilesByExtension(a.config.ModulesPath, ".hcl")
		if err != nil {
			return fmt.Errorf("failed to scan modules path: %w", err)
		}
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("failed to read manifest: %w", err)
			}
			files = append(files, config.File{Name: p, Bytes: data})
		}
		a.logger.Debug("Manifests found on disk.", "path", a.config.ModulesPath, "count", len(paths))
	}

	defs, err := loader.LoadManifests(ctx, files...)
	if err != nil {
		return fmt.Errorf("failed to load manifests: %w", err)
	}
	if err := a.registry.PopulateDefinitions(defs); err != nil {
		return err
	}
	a.logger.Debug("Registry definitions populated.", "types", len(defs))
	return nil
}

func (a *App) loadOptions(ctx context.Context, loader config.Loader) error {
	files, err := a.fetcher.FetchAll(ctx, a.config.OptionFiles...)
	if err != nil {
		return err
	}
	model, conv, err := loader.Load(ctx, files...)
	if err != nil {
		return fmt.Errorf("failed to load option files: %w", err)
	}
	if err := a.registry.Configure(ctx, model, conv); err != nil {
		return err
	}
	a.logger.Debug("Option files applied.", "files", len(files), "instances", len(a.registry.Instances()))
	return nil
}
