package framework

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/vk/gridlaunch/internal/component"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/ctxlog"
	"github.com/vk/gridlaunch/internal/registry"
	"golang.org/x/sync/errgroup"
)

// EventLoop runs the configured sequence over a stream of events.
type EventLoop struct {
	reg      *registry.Registry
	settings Settings
	progress progress

	services   map[string]component.Component
	components []component.Component // initialization order
	sequence   []component.Algorithm
}

// New creates an event loop for an already configured registry.
func New(reg *registry.Registry, settings Settings) *EventLoop {
	return &EventLoop{
		reg:      reg,
		settings: settings,
		services: make(map[string]component.Component),
	}
}

// Progress returns a snapshot of the run. It is safe to call concurrently
// with Run.
func (l *EventLoop) Progress() ProgressSnapshot {
	return l.progress.snapshot()
}

// Run executes the whole lifecycle. Cancelling ctx interrupts the run after
// the events in flight; the result is then StatusUserInterrupt. Finalizers
// always run for every component that initialized.
func (l *EventLoop) Run(ctx context.Context) (Status, error) {
	logger := ctxlog.FromContext(ctx)

	if err := l.build(ctx); err != nil {
		l.progress.finish(StatusConfigError)
		return StatusConfigError, err
	}

	l.progress.setPhase(PhaseInitializing)
	initialized, err := l.initialize(ctx)
	if err != nil {
		status := StatusFailure
		if ctx.Err() != nil {
			status = StatusUserInterrupt
		}
		err = errors.Join(err, l.finalize(ctx, initialized))
		l.progress.finish(status)
		return status, err
	}

	l.progress.setPhase(PhaseRunning)
	logger.Info("🚀 Event loop started.", "events", l.settings.Events, "workers", l.settings.Workers, "sequence", l.settings.Sequence)
	status, runErr := l.loop(ctx)

	l.progress.setPhase(PhaseFinalizing)
	if finErr := l.finalize(ctx, initialized); finErr != nil {
		if status == StatusSuccess {
			status = StatusFailure
		}
		runErr = errors.Join(runErr, finErr)
	}

	l.progress.finish(status)
	snap := l.progress.snapshot()
	logger.Info("🏁 Event loop finished.", "status", status.String(), "processed", snap.Processed, "failed", snap.Failed)
	return status, runErr
}

// build instantiates services in declaration order, then the sequence.
func (l *EventLoop) build(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	lookup := func(name string) (component.Component, bool) {
		c, ok := l.services[name]
		return c, ok
	}

	if l.settings.Events < 0 && len(l.settings.Sequence) == 0 {
		return fmt.Errorf("events = -1 needs a sequence with an algorithm that ends the input")
	}

	scheduled := make(map[string]bool, len(l.settings.Sequence))
	for _, name := range l.settings.Sequence {
		if scheduled[name] {
			return fmt.Errorf("sequence lists '%s' more than once", name)
		}
		scheduled[name] = true
	}

	for _, inst := range l.reg.Instances() {
		def := inst.Definition
		if def.Kind != config.KindService || def.Lifecycle == nil {
			if def.Kind == config.KindAlgorithm && !scheduled[inst.Name] {
				logger.Warn("Algorithm is configured but not in the sequence.", "instance", inst.Name, "type", inst.Type)
			}
			continue
		}
		svc, err := l.reg.Build(ctx, inst.Name, lookup)
		if err != nil {
			return err
		}
		l.services[inst.Name] = svc
		l.components = append(l.components, svc)
		logger.Debug("Service built.", "instance", inst.Name)
	}

	for _, name := range l.settings.Sequence {
		inst, ok := l.reg.Instance(name)
		if !ok {
			return fmt.Errorf("sequence references '%s', which is not configured", name)
		}
		if inst.Definition.Kind != config.KindAlgorithm {
			return fmt.Errorf("sequence references '%s' of type '%s', which is a %s, not an algorithm", name, inst.Type, inst.Definition.Kind)
		}
		comp, err := l.reg.Build(ctx, name, lookup)
		if err != nil {
			return err
		}
		alg, ok := comp.(component.Algorithm)
		if !ok {
			return fmt.Errorf("instance '%s' of type '%s' does not implement Execute", name, inst.Type)
		}
		l.sequence = append(l.sequence, alg)
		l.components = append(l.components, alg)
		logger.Debug("Algorithm built.", "instance", name)
	}
	return nil
}

// initialize returns the components that initialized successfully, so that
// exactly those are finalized.
func (l *EventLoop) initialize(ctx context.Context) ([]component.Component, error) {
	logger := ctxlog.FromContext(ctx)
	var done []component.Component
	for _, c := range l.components {
		if init, ok := c.(component.Initializer); ok {
			if err := init.Initialize(ctx); err != nil {
				return done, fmt.Errorf("failed to initialize '%s': %w", c.Name(), err)
			}
			logger.Debug("Component initialized.", "instance", c.Name())
		}
		done = append(done, c)
	}
	return done, nil
}

func (l *EventLoop) loop(ctx context.Context) (Status, error) {
	logger := ctxlog.FromContext(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.settings.Workers)

	var endOfInput atomic.Bool
	for n := int64(0); l.settings.Events < 0 || n < l.settings.Events; n++ {
		if endOfInput.Load() || gctx.Err() != nil {
			break
		}
		number := n
		g.Go(func() error {
			if endOfInput.Load() {
				return nil
			}
			return l.processEvent(gctx, number, &endOfInput)
		})
	}
	waitErr := g.Wait()

	switch {
	case ctx.Err() != nil:
		logger.Warn("Run interrupted.", "processed", l.progress.processed.Load())
		return StatusUserInterrupt, nil
	case waitErr != nil:
		return StatusFailure, waitErr
	case l.progress.failed.Load() > 0:
		return StatusFailure, fmt.Errorf("%d events failed", l.progress.failed.Load())
	}
	if endOfInput.Load() {
		logger.Info("End of input reached.")
	}
	return StatusSuccess, nil
}

func (l *EventLoop) processEvent(ctx context.Context, number int64, endOfInput *atomic.Bool) error {
	ctx = ctxlog.With(ctx, "event", number)
	logger := ctxlog.FromContext(ctx)
	evt := component.NewEvent(number)

	for _, alg := range l.sequence {
		err := alg.Execute(ctx, evt)
		if err == nil {
			continue
		}
		if errors.Is(err, component.ErrEndOfInput) {
			endOfInput.Store(true)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.progress.failed.Add(1)
		err = fmt.Errorf("event %d: %s: %w", number, alg.Name(), err)
		if l.settings.StopOnError {
			return err
		}
		logger.Error("Event failed.", "instance", alg.Name(), "error", err)
		return nil
	}

	processed := l.progress.processed.Add(1)
	if every := l.settings.ProgressEvery; every > 0 && processed%every == 0 {
		logger.Info("Progress.", "processed", processed)
	}
	return nil
}

// finalize runs finalizers in reverse initialization order, detached from
// cancellation so that an interrupted run still releases its resources.
func (l *EventLoop) finalize(ctx context.Context, components []component.Component) error {
	logger := ctxlog.FromContext(ctx)
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		fin, ok := c.(component.Finalizer)
		if !ok {
			continue
		}
		if err := fin.Finalize(ctx); err != nil {
			logger.Error("Finalize failed.", "instance", c.Name(), "error", err)
			errs = append(errs, fmt.Errorf("failed to finalize '%s': %w", c.Name(), err))
			continue
		}
		logger.Debug("Component finalized.", "instance", c.Name())
	}
	return errors.Join(errs...)
}
