package cli

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
	"github.com/vk/gridlaunch/internal/app"
)

// EnvPrefix prefixes the environment variables that provide flag defaults.
const EnvPrefix = "GRIDLAUNCH_"

// Options holds the fixed flags. Fields with an env tag take their default
// from GRIDLAUNCH_<tag>.
type Options struct {
	Events          int64
	Evtmax          int64
	LogLevel        string `env:"LOG_LEVEL"`
	LogFormat       string `env:"LOG_FORMAT" envDefault:"text"`
	DryRun          bool
	List            bool
	Debugger        bool
	DebuggerCmd     string        `env:"DEBUGGER_CMD"`
	DebuggerWait    time.Duration `env:"DEBUGGER_WAIT" envDefault:"5s"`
	Interactive     bool
	Set             []string
	Output          string `env:"OUTPUT"`
	ModulesPath     string `env:"MODULES_PATH"`
	Workers         int    `env:"WORKERS"`
	HealthcheckPort int    `env:"HEALTHCHECK_PORT"`
}

// defaultOptions returns the flag defaults after applying the environment.
func defaultOptions(environ map[string]string) (Options, error) {
	opts := Options{
		Events:      -1,
		Evtmax:      -1,
		DebuggerCmd: app.DefaultDebuggerCommand,
	}
	if err := env.ParseWithOptions(&opts, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return opts, fmt.Errorf("invalid %s* environment: %w", EnvPrefix, err)
	}
	return opts, nil
}

// bindFixedFlags defines the fixed flags on fs. It is used for both parsing
// phases so that they agree on which flags take a value.
func bindFixedFlags(fs *pflag.FlagSet, o *Options) {
	fs.Int64VarP(&o.Events, "events", "n", o.Events, "number of events to process; overrides app.events (-1 runs until end of input)")
	fs.Int64Var(&o.Evtmax, "evtmax", o.Evtmax, "number of events to process")
	_ = fs.MarkDeprecated("evtmax", "use --events instead")

	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level: debug, info, warn or error (default: app.output_level)")
	fs.StringVar(&o.LogFormat, "log-format", o.LogFormat, "log format: text or json")
	fs.BoolVar(&o.DryRun, "dry-run", o.DryRun, "print the final configuration and exit without running")
	fs.BoolVar(&o.List, "list", o.List, "list component types, instances and properties, then exit")
	fs.BoolVar(&o.Debugger, "debugger", o.Debugger, "start a debugger attached to this process before running")
	fs.StringVar(&o.DebuggerCmd, "debugger-cmd", o.DebuggerCmd, "debugger command; {pid} is replaced by the process id")
	fs.DurationVar(&o.DebuggerWait, "debugger-wait", o.DebuggerWait, "time to wait for the debugger to attach")
	fs.BoolVarP(&o.Interactive, "interactive", "i", o.Interactive, "review and edit properties in a terminal UI before running")
	fs.StringArrayVar(&o.Set, "set", o.Set, "override a property: instance.property=value (repeatable)")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "write the final configuration to a .hcl, .json or .yaml file")
	fs.StringVar(&o.ModulesPath, "modules-path", o.ModulesPath, "directory with additional component manifests")
	fs.IntVar(&o.Workers, "workers", o.Workers, "number of events processed concurrently; overrides app.workers")
	fs.IntVar(&o.HealthcheckPort, "healthcheck-port", o.HealthcheckPort, "port for the HTTP health check server; 0 disables it")
}

func newFixedFlagSet(o *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("gridlaunch", pflag.ContinueOnError)
	bindFixedFlags(fs, o)
	return fs
}
