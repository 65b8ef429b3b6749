// Package radare runs radare2 commands against a file in batch mode.
package radare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultPath is the radare2 binary looked up on PATH.
const DefaultPath = "r2"

// waitDelay bounds how long Run waits for output pipes after r2 is killed.
const waitDelay = 2 * time.Second

// ErrNotInstalled is returned by Probe when radare2 cannot be started.
var ErrNotInstalled = errors.New("radare2 is not installed or not in PATH")

// Output holds what a single radare2 invocation produced.
//
// Err is set only when the process could not be launched (or was cancelled);
// a non-zero exit status is not an error. When Err is set Stdout is empty
// and Stderr carries the failure text.
type Output struct {
	Stdout string
	Stderr string
	Err    error
}

// Runner executes one radare2 command against one file.
type Runner interface {
	Run(ctx context.Context, file, command string) Output
}

// RunnerFunc adapts an ordinary function to the Runner interface.
type RunnerFunc func(ctx context.Context, file, command string) Output

// Run calls f(ctx, file, command).
func (f RunnerFunc) Run(ctx context.Context, file, command string) Output {
	return f(ctx, file, command)
}

// Exec runs the radare2 binary as a subprocess.
type Exec struct {
	// Path to the r2 binary. Empty means DefaultPath.
	Path string
	// Timeout per command. Zero means no timeout.
	Timeout time.Duration
}

func (e Exec) path() string {
	if e.Path == "" {
		return DefaultPath
	}
	return e.Path
}

// Args returns the argument list for running command against file with -q.
func Args(file, command string) []string {
	return []string{"-q", "-c", command, file}
}

// Run implements Runner.
func (e Exec) Run(ctx context.Context, file, command string) Output {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path(), Args(file, command)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			// r2 ran and exited non-zero; its output is still usable.
			return Output{Stdout: stdout.String(), Stderr: stderr.String()}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%s %q: %w", e.path(), command, ctxErr)
		} else {
			err = fmt.Errorf("%s %q: %w", e.path(), command, err)
		}
		return Output{Stderr: err.Error(), Err: err}
	}

	return Output{Stdout: stdout.String(), Stderr: stderr.String()}
}

// Probe checks that the r2 binary can be started by asking for its version.
func (e Exec) Probe(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, e.path(), "-v").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Started but complained; it is installed.
			return string(out), nil
		}
		return "", fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}
	return string(out), nil
}
