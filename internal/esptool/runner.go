package esptool

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"

	"github.com/lxc/incus/v6/shared/subprocess"
)

// Result is the outcome of a process execution.
type Result struct {
	ExitCode int
	Output   string

	// Detail describes a failed run, including what the process wrote to stderr.
	Detail string
}

// Runner executes external commands.
//
// A process that ran and exited is reported through Result, whatever its exit code.
// An error is only returned when the process couldn't be run at all.
type Runner interface {
	Run(ctx context.Context, stdout io.Writer, name string, args ...string) (Result, error)
}

type subprocessRunner struct{}

// NewRunner returns a Runner backed by the incus subprocess helpers.
func NewRunner() Runner {
	return subprocessRunner{}
}

func (subprocessRunner) Run(ctx context.Context, stdout io.Writer, name string, args ...string) (Result, error) {
	var captured bytes.Buffer

	out := io.Writer(&captured)
	if stdout != nil {
		out = io.MultiWriter(&captured, stdout)
	}

	err := subprocess.RunCommandWithFds(ctx, nil, out, name, args...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode(), Output: captured.String(), Detail: err.Error()}, nil
		}

		return Result{}, err
	}

	return Result{ExitCode: 0, Output: captured.String()}, nil
}
