package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vk/gridlaunch/internal/app"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/framework"
	"github.com/vk/gridlaunch/internal/hcl"
	"github.com/vk/gridlaunch/internal/interactive"
	"github.com/vk/gridlaunch/internal/options"
	"github.com/vk/gridlaunch/internal/registry"
	"github.com/vk/gridlaunch/internal/source"
	"github.com/zclconf/go-cty/cty"
)

// parsed is the outcome of the strict second parse.
type parsed struct {
	app   *app.App
	opts  Options
	flags *pflag.FlagSet
	set   *options.Set
}

func (l *Launcher) launch(ctx context.Context, cmd *cobra.Command, phase1 Options, rawArgs, files []string) error {
	if len(files) == 0 && !phase1.List {
		return l.usageError(cmd, "no option file given")
	}

	p, err := l.load(ctx, cmd, phase1, files, rawArgs)
	if err != nil {
		return err
	}
	if positional := p.flags.Args(); !slices.Equal(positional, files) {
		// A bare boolean property flag swallowed a file in the first
		// phase, or a value was mistaken for one. Load the right files.
		p.app.Logger().Debug("Option files differ after strict parsing; reloading.", "before", files, "after", positional)
		files = positional
		if len(files) == 0 && !p.opts.List {
			return l.usageError(cmd, "no option file given")
		}
		if p, err = l.load(ctx, cmd, p.opts, files, rawArgs); err != nil {
			return err
		}
		if !slices.Equal(p.flags.Args(), files) {
			return l.usageError(cmd, fmt.Sprintf("cannot tell option files from flag values in %q", rawArgs))
		}
	}

	a := p.app
	ctx = a.Context(ctx)
	if err := l.applyOverrides(ctx, p); err != nil {
		return err
	}
	return l.dispatch(ctx, a, p.opts)
}

// load builds the app from files and parses rawArgs strictly against the
// fixed flags plus the synthesized property flags.
func (l *Launcher) load(ctx context.Context, cmd *cobra.Command, opts Options, files, rawArgs []string) (*parsed, error) {
	cfg, err := app.NewConfig(app.Config{
		OptionFiles:     files,
		ModulesPath:     opts.ModulesPath,
		LogFormat:       opts.LogFormat,
		LogLevel:        opts.LogLevel,
		HealthcheckPort: opts.HealthcheckPort,
		Env:             l.Environ,
	})
	if err != nil {
		return nil, l.usageError(cmd, err.Error())
	}

	a, err := app.NewApp(l.Streams.Err, cfg, hcl.NewLoader(l.Environ), l.Modules...)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return nil, l.usageError(cmd, err.Error())
		}
		return nil, &ExitError{Code: ExitLoadError, Message: err.Error()}
	}

	strict, err := defaultOptions(l.Environ)
	if err != nil {
		return nil, &ExitError{Code: ExitUsageError, Message: err.Error()}
	}
	fs := pflag.NewFlagSet("gridlaunch", pflag.ContinueOnError)
	fs.SetOutput(l.Streams.Err)
	fs.Usage = func() {}
	bindFixedFlags(fs, &strict)

	reg := a.Registry()
	set, err := options.Synthesize(fs, reg, reg.Converter())
	if err != nil {
		return nil, &ExitError{Code: ExitLoadError, Message: err.Error()}
	}
	// Help was handled by cobra; accept the flag here so parsing agrees.
	fs.BoolP("help", "h", false, "help")
	if err := fs.Parse(rawArgs); err != nil {
		fmt.Fprintf(l.Streams.Err, "Run 'gridlaunch --list %s' to see the available property flags.\n", strings.Join(files, " "))
		return nil, &ExitError{Code: ExitUsageError, Message: err.Error()}
	}
	return &parsed{app: a, opts: strict, flags: fs, set: set}, nil
}

// applyOverrides writes command-line values into the registry: property
// flags first, then --set assignments, then the dedicated fixed flags.
func (l *Launcher) applyOverrides(ctx context.Context, p *parsed) error {
	a, reg := p.app, p.app.Registry()
	logger := a.Logger()

	n, err := p.set.Apply(ctx)
	if err != nil {
		return &ExitError{Code: ExitUsageError, Message: err.Error()}
	}
	if err := options.ApplyAssignments(ctx, reg, reg.Converter(), p.opts.Set); err != nil {
		return &ExitError{Code: ExitUsageError, Message: err.Error()}
	}

	appInst, ok := reg.Instance(config.ApplicationName)
	if !ok {
		return &ExitError{Code: ExitLoadError, Message: "application instance is missing"}
	}
	switch {
	case p.flags.Changed("events"):
		err = appInst.Set("events", cty.NumberIntVal(p.opts.Events), registry.OriginCommandLine)
	case p.flags.Changed("evtmax"):
		err = appInst.Set("events", cty.NumberIntVal(p.opts.Evtmax), registry.OriginCommandLine)
	}
	if err != nil {
		return &ExitError{Code: ExitUsageError, Message: err.Error()}
	}
	if p.opts.Workers > 0 {
		if err := appInst.Set("workers", cty.NumberIntVal(int64(p.opts.Workers)), registry.OriginCommandLine); err != nil {
			return &ExitError{Code: ExitUsageError, Message: err.Error()}
		}
	}
	if err := a.SyncLogLevel(); err != nil {
		return &ExitError{Code: ExitUsageError, Message: err.Error()}
	}
	logger.Debug("Command-line overrides applied.", "property_flags", n, "assignments", len(p.opts.Set))
	return nil
}

func (l *Launcher) dispatch(ctx context.Context, a *app.App, opts Options) error {
	logger := a.Logger()

	if opts.List {
		if err := a.List(l.Streams.Out); err != nil {
			return &ExitError{Code: ExitLoadError, Message: err.Error()}
		}
		return nil
	}

	if opts.Interactive {
		outcome, err := interactive.Run(ctx, a.Registry(), l.Streams.In, l.Streams.Out)
		if err != nil {
			return &ExitError{Code: ExitLoadError, Message: err.Error()}
		}
		if outcome == interactive.Aborted {
			logger.Info("Interactive mode closed without starting the run.")
			return nil
		}
		if err := a.SyncLogLevel(); err != nil {
			return &ExitError{Code: ExitUsageError, Message: err.Error()}
		}
	}

	if opts.Output != "" {
		if err := a.WriteOutput(opts.Output); err != nil {
			return &ExitError{Code: ExitLoadError, Message: err.Error()}
		}
	}

	if opts.DryRun {
		if err := a.WriteConfig(l.Streams.Out, app.FormatHCL); err != nil {
			return &ExitError{Code: ExitLoadError, Message: err.Error()}
		}
		logger.Info("Dry run: configuration printed, not running.")
		return nil
	}

	if opts.Debugger {
		if _, err := a.AttachDebugger(ctx, opts.DebuggerCmd, opts.DebuggerWait); err != nil {
			if ctx.Err() != nil {
				return statusError(logger, framework.StatusUserInterrupt, nil)
			}
			return &ExitError{Code: ExitLoadError, Message: err.Error()}
		}
	}

	status, err := a.Run(ctx)
	return statusError(logger, status, err)
}

func (l *Launcher) usageError(cmd *cobra.Command, msg string) error {
	fmt.Fprintln(l.Streams.Err, cmd.UsageString())
	return &ExitError{Code: ExitUsageError, Message: msg}
}

