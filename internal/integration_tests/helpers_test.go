package integration_tests

import (
	"errors"
	"testing"

	"github.com/vk/gridlaunch/internal/cli"
	"github.com/vk/gridlaunch/internal/registry"
	"github.com/vk/gridlaunch/internal/testutil"
)

// launch runs the command line with the given modules (the compiled-in
// ones when none are given) and an isolated environment.
func launch(t *testing.T, environ map[string]string, modules []registry.Module, args ...string) testutil.LaunchResult {
	t.Helper()
	in, out, errOut := testutil.Streams(t)
	if environ == nil {
		environ = map[string]string{}
	}
	l := &cli.Launcher{
		Streams: cli.Streams{In: in, Out: out, Err: errOut},
		Environ: environ,
		Modules: modules,
	}
	return testutil.Launch(t, l, out, errOut, args...)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *cli.ExitError
	if errors.As(err, &e) {
		return e.Code
	}
	return -1
}
