package console

import (
	"github.com/lxc/incus/v6/shared/termios"
)

// IsTerminal returns whether standard output is attached to a terminal.
func IsTerminal() bool {
	return termios.IsTerminal(getStdoutFd())
}

// DetectMode picks the rendering mode for standard output.
func DetectMode(jsonOutput bool) Mode {
	if jsonOutput {
		return ModeJSON
	}

	if IsTerminal() {
		return ModeTerminal
	}

	return ModePlain
}
