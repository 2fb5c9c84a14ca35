package esptool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/catdevcode/catos-flasher/api"
)

// Fixed parameters of every tool invocation.
const (
	Chip = "esp32"
	Baud = 460800
)

// Reporter receives the progress and console output of an operation.
type Reporter interface {
	Progress(percent int)
	Log(line string)
}

// ToolInvocationError is returned when the flashing tool exits with a non-zero code.
type ToolInvocationError struct {
	ExitCode int
	Detail   string
}

func (e *ToolInvocationError) Error() string {
	return "flashing tool exited with code " + strconv.Itoa(e.ExitCode)
}

// Programmer drives the external flashing tool.
type Programmer struct {
	runner Runner

	command     string
	commandArgs []string
}

// NewProgrammer returns a Programmer running command (plus any leading arguments) through runner.
func NewProgrammer(runner Runner, command string, commandArgs ...string) *Programmer {
	return &Programmer{
		runner:      runner,
		command:     command,
		commandArgs: commandArgs,
	}
}

// FlashArgs returns the tool arguments writing images to the device on port.
func (*Programmer) FlashArgs(port string, images []FlashImage) []string {
	args := []string{
		"--chip", Chip,
		"--port", port,
		"--baud", strconv.Itoa(Baud),
		"--before", "default_reset",
		"--after", "hard_reset",
		"write_flash",
		"-z",
		"--flash_mode", "dio",
		"--flash_freq", "80m",
		"--flash_size", "4MB",
	}

	for _, image := range images {
		args = append(args, image.HexOffset(), image.Path)
	}

	return args
}

// EraseArgs returns the tool arguments erasing the whole flash of the device on port.
func (*Programmer) EraseArgs(port string) []string {
	return []string{
		"--chip", Chip,
		"--port", port,
		"--baud", strconv.Itoa(Baud),
		"erase_flash",
	}
}

// CommandLine renders the full invocation for display.
func (p *Programmer) CommandLine(args []string) string {
	parts := append([]string{p.command}, p.commandArgs...)
	parts = append(parts, args...)

	return strings.Join(parts, " ")
}

// Flash writes images to the device on port and reports the outcome.
func (p *Programmer) Flash(ctx context.Context, port string, images []FlashImage, reporter Reporter) api.OperationOutcome {
	reporter.Log("The ESP32 firmware process begins...")

	err := CheckImages(images)
	if err != nil {
		reporter.Log(err.Error())

		return api.OperationOutcome{Succeeded: false, Message: err.Error()}
	}

	args := p.FlashArgs(port, images)

	reporter.Log("The firmware command: " + p.CommandLine(args))
	reporter.Log("Connecting and uploading firmware to ESP32...")
	reporter.Progress(10)

	err = p.invoke(ctx, reporter, args)
	if err != nil {
		return p.failed(reporter, "Firmware error", err)
	}

	reporter.Log("The firmware is completed successfully!")
	reporter.Progress(100)

	return api.OperationOutcome{Succeeded: true, Message: "ESP32 has been successfully flashed!"}
}

// Erase wipes the whole flash of the device on port and reports the outcome.
func (p *Programmer) Erase(ctx context.Context, port string, reporter Reporter) api.OperationOutcome {
	reporter.Log("The cleaning of the ESP32 flash memory begins...")

	args := p.EraseArgs(port)

	reporter.Log("The cleaning command: " + p.CommandLine(args))
	reporter.Progress(20)

	err := p.invoke(ctx, reporter, args)
	if err != nil {
		return p.failed(reporter, "Cleaning error", err)
	}

	reporter.Log("The flash memory cleanup has been completed successfully!")
	reporter.Progress(100)

	return api.OperationOutcome{Succeeded: true, Message: "ESP32 flash memory has been successfully cleared!"}
}

// invoke runs the tool, relaying its output line by line.
func (p *Programmer) invoke(ctx context.Context, reporter Reporter, args []string) error {
	out := &lineWriter{emit: reporter.Log}

	slog.DebugContext(ctx, "Running flashing tool", slog.String("command", p.CommandLine(args)))

	res, err := p.runner.Run(ctx, out, p.command, append(append([]string{}, p.commandArgs...), args...)...)
	out.Flush()

	if err != nil {
		return err
	}

	if res.ExitCode != 0 {
		return &ToolInvocationError{ExitCode: res.ExitCode, Detail: res.Detail}
	}

	return nil
}

func (p *Programmer) failed(reporter Reporter, prefix string, err error) api.OperationOutcome {
	msg := "Error when calling " + p.command + ": " + err.Error()

	var toolErr *ToolInvocationError
	if errors.As(err, &toolErr) {
		for _, line := range strings.Split(strings.TrimSpace(toolErr.Detail), "\n") {
			if line != "" {
				reporter.Log(line)
			}
		}

		msg = fmt.Sprintf("%s (code %d)", prefix, toolErr.ExitCode)
	}

	reporter.Log(msg)

	return api.OperationOutcome{Succeeded: false, Message: msg}
}

// lineWriter splits a byte stream into lines, treating carriage returns as line ends.
type lineWriter struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	emit func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range p {
		if b != '\n' && b != '\r' {
			_ = w.buf.WriteByte(b)

			continue
		}

		w.flushLocked()
	}

	return len(p), nil
}

// Flush emits any pending partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.flushLocked()
}

func (w *lineWriter) flushLocked() {
	line := strings.TrimSpace(w.buf.String())
	w.buf.Reset()

	if line != "" {
		w.emit(line)
	}
}
