//go:build windows

package console

import (
	"golang.org/x/sys/windows"
)

func getStdoutFd() int {
	return int(windows.Stdout)
}
