//go:build (linux && !appengine) || darwin || freebsd || openbsd

package console

import (
	"golang.org/x/sys/unix"
)

func getStdoutFd() int {
	return unix.Stdout
}
