package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultDebuggerCommand attaches Delve to the launcher process.
const DefaultDebuggerCommand = "dlv attach {pid} --headless --listen=127.0.0.1:2345 --accept-multiclient"

// AttachDebugger starts the debugger command with {pid} replaced by the
// current process id, then waits so that the debugger can attach before the
// run starts. The debugger keeps running after AttachDebugger returns; it is
// reaped in the background and the returned channel yields its exit error.
// A debugger that fails before the wait is over ends the wait early.
func (a *App) AttachDebugger(ctx context.Context, cmdTemplate string, wait time.Duration) (<-chan error, error) {
	argv := debuggerArgs(cmdTemplate, os.Getpid())
	if len(argv) == 0 {
		return nil, fmt.Errorf("debugger command is empty")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start debugger %q: %w", argv[0], err)
	}
	a.logger.Info("🐞 Debugger started, waiting for it to attach.", "command", strings.Join(argv, " "), "pid", cmd.Process.Pid, "wait", wait)

	exited := make(chan error, 1)
	done := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		a.logger.Debug("Debugger exited.", "pid", cmd.Process.Pid, "error", err)
		exited <- err
		done <- err
	}()

	select {
	case <-time.After(wait):
	case err := <-exited:
		if err != nil {
			return done, fmt.Errorf("debugger %q exited before the run started: %w", argv[0], err)
		}
	case <-ctx.Done():
		return done, ctx.Err()
	}
	return done, nil
}

func debuggerArgs(cmdTemplate string, pid int) []string {
	expanded := strings.ReplaceAll(cmdTemplate, "{pid}", strconv.Itoa(pid))
	return strings.Fields(expanded)
}
