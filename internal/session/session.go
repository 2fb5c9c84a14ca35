// Package session coordinates the provisioning operations run against one serial port.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/catdevcode/catos-flasher/api"
	"github.com/catdevcode/catos-flasher/internal/esptool"
	"github.com/catdevcode/catos-flasher/internal/providers"
	"github.com/catdevcode/catos-flasher/internal/state"
)

// ErasePrompt is the question asked before wiping the device.
const ErasePrompt = "This operation will completely clear the ESP32 flash memory.\n" +
	"All data will be permanently deleted.\n\n" +
	"Are you sure you want to continue?"

// ErrOperationInProgress is returned when an operation is started while another one runs.
var ErrOperationInProgress = errors.New("an operation is already in progress")

// ErrNoConfirmation is returned when an erase is requested without a way to confirm it.
var ErrNoConfirmation = errors.New("erasing requires a confirmation")

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(question string) (bool, error)

// Programmer writes to and erases the device flash.
type Programmer interface {
	Flash(ctx context.Context, port string, images []esptool.FlashImage, reporter esptool.Reporter) api.OperationOutcome
	Erase(ctx context.Context, port string, reporter esptool.Reporter) api.OperationOutcome
}

// Session runs download, flash and erase operations for a selected port, one at a time.
type Session struct {
	port   string
	config api.FlasherConfig

	fetcher    providers.ReleaseFetcher
	programmer Programmer
	sink       Sink

	mu    sync.Mutex
	state State
	wg    sync.WaitGroup
}

// New returns an idle session for port.
func New(port string, config api.FlasherConfig, fetcher providers.ReleaseFetcher, programmer Programmer, sink Sink) *Session {
	return &Session{
		port:       port,
		config:     config,
		fetcher:    fetcher,
		programmer: programmer,
		sink:       sink,
		state:      Idle,
	}
}

// Port returns the serial port of the session.
func (s *Session) Port() string {
	return s.port
}

// State returns the current activity of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Wait blocks until the running operation, if any, has delivered its result.
func (s *Session) Wait() {
	s.wg.Wait()
}

// CurrentVersion returns the tag of the cached firmware.
func (s *Session) CurrentVersion() string {
	return state.CurrentVersion(s.config.Storage.CacheDirectory)
}

// Images returns the flash layout used by StartFlash.
func (s *Session) Images() []esptool.FlashImage {
	return esptool.Layout(s.config.Storage.ImagesDirectory, state.FirmwarePath(s.config.Storage.CacheDirectory))
}

// StartDownload fetches the latest firmware release into the cache in the background.
func (s *Session) StartDownload(ctx context.Context) error {
	r, err := s.begin(api.OperationDownload, Downloading)
	if err != nil {
		return err
	}

	r.Log("Starting firmware download...")
	r.Progress(0)

	s.run(r, func() api.OperationOutcome {
		return s.download(ctx, r)
	}, []string{"Firmware download completed successfully!"}, []string{"Firmware download failed!"})

	return nil
}

// StartFlash writes the cached firmware layout to the device in the background.
// Missing images are reported synchronously and no operation is started.
func (s *Session) StartFlash(ctx context.Context) error {
	if s.State() != Idle {
		return ErrOperationInProgress
	}

	images := s.Images()

	err := esptool.CheckImages(images)
	if err != nil {
		return err
	}

	r, err := s.begin(api.OperationFlash, Flashing)
	if err != nil {
		return err
	}

	r.Log("Starting ESP32 flash process...")
	r.Progress(0)

	s.run(r, func() api.OperationOutcome {
		return s.programmer.Flash(ctx, s.port, images, r)
	}, []string{"Flash process completed successfully!", "You can now reset ESP32 to normal mode"}, []string{"Flash process failed!"})

	return nil
}

// StartErase wipes the device flash in the background once confirm agreed to it.
// A declined confirmation isn't an error, nothing is started.
func (s *Session) StartErase(ctx context.Context, confirm ConfirmFunc) error {
	if s.State() != Idle {
		return ErrOperationInProgress
	}

	if confirm == nil {
		return ErrNoConfirmation
	}

	ok, err := confirm(ErasePrompt)
	if err != nil {
		return err
	}

	if !ok {
		s.sink.Log(api.OperationErase, "Cleaning canceled by the user")

		return nil
	}

	r, err := s.begin(api.OperationErase, Erasing)
	if err != nil {
		return err
	}

	r.Log("Starting ESP32 flash memory erase...")
	r.Progress(0)

	s.run(r, func() api.OperationOutcome {
		return s.programmer.Erase(ctx, s.port, r)
	}, []string{"Flash memory erase completed successfully!"}, []string{"Flash memory erase failed!"})

	return nil
}

func (s *Session) download(ctx context.Context, r *relay) api.OperationOutcome {
	release, err := s.fetcher.FetchLatest(ctx, s.config.Release.Owner, s.config.Release.Repository)
	if err != nil {
		if errors.Is(err, providers.ErrAssetNotFound) {
			return api.OperationOutcome{Succeeded: false, Message: "The " + providers.FirmwareAssetName + " file was not found in the release"}
		}

		return api.OperationOutcome{Succeeded: false, Message: "Error: " + err.Error()}
	}

	r.Log("Downloading firmware " + release.Tag + "...")

	fw, err := s.fetcher.Download(ctx, release, s.config.Storage.CacheDirectory, r.Progress)
	if err != nil {
		return api.OperationOutcome{Succeeded: false, Message: "Error: " + err.Error()}
	}

	return api.OperationOutcome{Succeeded: true, Message: "The firmware has been downloaded successfully: " + fw.VersionTag}
}

// begin moves the session out of Idle, failing if an operation is already running.
func (s *Session) begin(op api.Operation, next State) (*relay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return nil, ErrOperationInProgress
	}

	s.state = next
	s.wg.Add(1)

	id := uuid.New().String()

	slog.Info("Starting operation", slog.String("operation", string(op)), slog.String("id", id), slog.String("port", s.port))

	return newRelay(op, id, s.sink), nil
}

// run executes work in its own goroutine, logs the matching summary lines, then returns
// the session to Idle and delivers the outcome.
func (s *Session) run(r *relay, work func() api.OperationOutcome, onSuccess []string, onFailure []string) {
	go func() {
		defer s.wg.Done()

		outcome := s.protect(r, work)

		summary := onFailure
		if outcome.Succeeded {
			summary = onSuccess
		}

		for _, line := range summary {
			r.Log(line)
		}

		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()

		slog.Info("Operation finished", slog.String("operation", string(r.op)), slog.String("id", r.id), slog.Bool("succeeded", outcome.Succeeded))

		r.Result(outcome)
	}()
}

// protect turns a panic in work into a failed outcome.
func (*Session) protect(r *relay, work func() api.OperationOutcome) (outcome api.OperationOutcome) {
	defer func() {
		rec := recover()
		if rec != nil {
			msg := fmt.Sprintf("Critical error: %v", rec)
			r.Log(msg)

			outcome = api.OperationOutcome{Succeeded: false, Message: msg}
		}
	}()

	return work()
}
