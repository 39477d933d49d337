package testutil

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

// Executor runs one command line. *cli.Launcher satisfies it through
// Execute; the indirection keeps this package free of the cli import.
type Executor interface {
	Execute(ctx context.Context, args []string) error
}

// LaunchResult holds the outcome of a full command-line run.
type LaunchResult struct {
	Err    error
	Stdout string
	Stderr string
}

// Streams returns fresh buffers for a launcher and registers the captured
// stderr for dumping on failure.
func Streams(t *testing.T) (*strings.Reader, *bytes.Buffer, *SafeBuffer) {
	t.Helper()
	stderr := &SafeBuffer{}
	LogOnFailure(t, stderr)
	return strings.NewReader(""), &bytes.Buffer{}, stderr
}

// Launch executes args and collects the result.
func Launch(t *testing.T, e Executor, stdout *bytes.Buffer, stderr *SafeBuffer, args ...string) LaunchResult {
	t.Helper()
	err := e.Execute(context.Background(), args)
	return LaunchResult{Err: err, Stdout: stdout.String(), Stderr: stderr.String()}
}
