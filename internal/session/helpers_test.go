package session

import (
	"context"
	"io"
	"strings"

	"github.com/catdevcode/catos-flasher/internal/esptool"
)

// scriptedRunner pretends to be the flashing tool.
type scriptedRunner struct {
	output   string
	exitCode int
}

func (r *scriptedRunner) Run(_ context.Context, stdout io.Writer, _ string, _ ...string) (esptool.Result, error) {
	if stdout != nil {
		_, _ = io.WriteString(stdout, r.output)
	}

	return esptool.Result{ExitCode: r.exitCode, Output: r.output}, nil
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
