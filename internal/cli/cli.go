package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/gridlaunch/internal/framework"
	"github.com/vk/gridlaunch/internal/registry"
)

// Exit codes that are not run statuses.
const (
	ExitLoadError  = 1
	ExitUsageError = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Launcher runs one invocation of the command line.
type Launcher struct {
	Streams Streams
	// Environ provides GRIDLAUNCH_* defaults and the `env` object of option
	// files. Nil means the process environment.
	Environ map[string]string
	// Modules replaces the compiled-in modules when set.
	Modules []registry.Module
}

// NewLauncher creates a launcher bound to the process streams and
// environment.
func NewLauncher() *Launcher {
	return &Launcher{
		Streams: Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr},
		Environ: Environ(os.Environ()),
	}
}

// Environ converts KEY=VALUE pairs into a map.
func Environ(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

// Execute parses args and runs the selected mode. The returned error is nil
// or an *ExitError carrying the process exit code.
func (l *Launcher) Execute(ctx context.Context, args []string) error {
	if l.Environ == nil {
		l.Environ = Environ(os.Environ())
	}
	opts, err := defaultOptions(l.Environ)
	if err != nil {
		return &ExitError{Code: ExitUsageError, Message: err.Error()}
	}

	cmd := l.newRootCommand(&opts, args)
	cmd.SetArgs(args)
	cmd.SetIn(l.Streams.In)
	cmd.SetOut(l.Streams.Out)
	cmd.SetErr(l.Streams.Err)

	err = cmd.ExecuteContext(ctx)
	var exitErr *ExitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr):
		return exitErr
	default:
		// Cobra's own parse errors, e.g. a bad value for a fixed flag.
		fmt.Fprintln(l.Streams.Err, cmd.UsageString())
		return &ExitError{Code: ExitUsageError, Message: err.Error()}
	}
}

func (l *Launcher) newRootCommand(opts *Options, rawArgs []string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridlaunch [flags] OPTION_FILE...",
		Short: "Configure and run framework components from option files",
		Long: `gridlaunch loads component instances from one or more option files
(HCL, or HCL's JSON syntax), exposes every property of every instance as a
command-line flag of the form --<instance>.<property>, applies the
overrides and runs the event loop.

Later option files override earlier ones. OPTION_FILE may be a local file,
a directory, an http(s):// URL, an s3://bucket/key or a gs://bucket/key
URI. Use --list with the option files to see the property flags.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			files := scanOptionFiles(cmd.Flags(), rawArgs)
			return l.launch(cmd.Context(), cmd, *opts, rawArgs, files)
		},
	}
	cmd.Flags().SortFlags = false
	bindFixedFlags(cmd.Flags(), opts)
	return cmd
}

// statusError maps a run status onto the process exit code. An interrupted
// run counts as a success.
func statusError(logger *slog.Logger, status framework.Status, err error) error {
	switch status {
	case framework.StatusSuccess:
		return nil
	case framework.StatusUserInterrupt:
		logger.Warn("Run interrupted by the user; exiting with success.")
		return nil
	}
	msg := status.String()
	if err != nil {
		msg = err.Error()
	}
	return &ExitError{Code: int(status), Message: msg}
}
