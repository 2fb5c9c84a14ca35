package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catdevcode/catos-flasher/api"
	"github.com/catdevcode/catos-flasher/internal/esptool"
	"github.com/catdevcode/catos-flasher/internal/providers"
)

type event struct {
	op       api.Operation
	kind     api.EventType
	progress int
	line     string
	outcome  api.OperationOutcome
}

type recordingSink struct {
	mu     sync.Mutex
	events []event
}

func (s *recordingSink) Progress(op api.Operation, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event{op: op, kind: api.EventProgress, progress: percent})
}

func (s *recordingSink) Log(op api.Operation, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event{op: op, kind: api.EventLog, line: line})
}

func (s *recordingSink) Result(op api.Operation, outcome api.OperationOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event{op: op, kind: api.EventResult, outcome: outcome})
}

func (s *recordingSink) snapshot() []event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]event{}, s.events...)
}

func (s *recordingSink) progress() []int {
	values := []int{}

	for _, e := range s.snapshot() {
		if e.kind == api.EventProgress {
			values = append(values, e.progress)
		}
	}

	return values
}

func (s *recordingSink) lines() []string {
	lines := []string{}

	for _, e := range s.snapshot() {
		if e.kind == api.EventLog {
			lines = append(lines, e.line)
		}
	}

	return lines
}

func (s *recordingSink) results() []api.OperationOutcome {
	outcomes := []api.OperationOutcome{}

	for _, e := range s.snapshot() {
		if e.kind == api.EventResult {
			outcomes = append(outcomes, e.outcome)
		}
	}

	return outcomes
}

// blockingProgrammer holds every operation until release is closed.
type blockingProgrammer struct {
	started chan struct{}
	release chan struct{}

	mu      sync.Mutex
	flashes int
	erases  int

	progress []int
	outcome  api.OperationOutcome
	panics   bool
}

func newBlockingProgrammer() *blockingProgrammer {
	return &blockingProgrammer{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
		outcome: api.OperationOutcome{Succeeded: true, Message: "done"},
	}
}

func (p *blockingProgrammer) Flash(_ context.Context, _ string, _ []esptool.FlashImage, reporter esptool.Reporter) api.OperationOutcome {
	p.mu.Lock()
	p.flashes++
	p.mu.Unlock()

	return p.work(reporter)
}

func (p *blockingProgrammer) Erase(_ context.Context, _ string, reporter esptool.Reporter) api.OperationOutcome {
	p.mu.Lock()
	p.erases++
	p.mu.Unlock()

	return p.work(reporter)
}

func (p *blockingProgrammer) work(reporter esptool.Reporter) api.OperationOutcome {
	p.started <- struct{}{}
	<-p.release

	if p.panics {
		panic("serial port vanished")
	}

	for _, v := range p.progress {
		reporter.Progress(v)
	}

	return p.outcome
}

func testConfig(t *testing.T) api.FlasherConfig {
	t.Helper()

	dir := t.TempDir()

	cfg := api.DefaultFlasherConfig()
	cfg.Release.Owner = "X"
	cfg.Release.Repository = "Y"
	cfg.Release.Retries = 0
	cfg.Storage.CacheDirectory = filepath.Join(dir, "firmware")
	cfg.Storage.ImagesDirectory = filepath.Join(dir, "flash")

	return cfg
}

func writeImages(t *testing.T, s *Session) {
	t.Helper()

	for _, image := range s.Images() {
		require.NoError(t, os.MkdirAll(filepath.Dir(image.Path), 0o755))
		require.NoError(t, os.WriteFile(image.Path, []byte{0xe9}, 0o644))
	}
}

func TestStartWhileBusy(t *testing.T) {
	t.Parallel()

	programmer := newBlockingProgrammer()
	sink := &recordingSink{}
	s := New("/dev/ttyUSB0", testConfig(t), nil, programmer, sink)
	writeImages(t, s)

	require.NoError(t, s.StartFlash(context.Background()))
	<-programmer.started
	require.Equal(t, Flashing, s.State())

	before := len(sink.snapshot())

	require.ErrorIs(t, s.StartFlash(context.Background()), ErrOperationInProgress)
	require.ErrorIs(t, s.StartDownload(context.Background()), ErrOperationInProgress)
	require.ErrorIs(t, s.StartErase(context.Background(), func(string) (bool, error) {
		t.Fatal("confirmation asked while busy")

		return true, nil
	}), ErrOperationInProgress)

	// Rejected starts don't emit anything.
	require.Len(t, sink.snapshot(), before)

	close(programmer.release)
	s.Wait()

	require.Equal(t, Idle, s.State())
	require.Equal(t, 1, programmer.flashes)
	require.Equal(t, 0, programmer.erases)
	require.Equal(t, []api.OperationOutcome{{Succeeded: true, Message: "done"}}, sink.results())
}

func TestStartFlashMissingImages(t *testing.T) {
	t.Parallel()

	programmer := newBlockingProgrammer()
	sink := &recordingSink{}
	s := New("/dev/ttyUSB0", testConfig(t), nil, programmer, sink)

	err := s.StartFlash(context.Background())

	var missing *esptool.MissingImageError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, s.Images()[0].Path, missing.Path)

	require.Equal(t, Idle, s.State())
	require.Empty(t, sink.snapshot())
	require.Equal(t, 0, programmer.flashes)
}

func TestFlashEvents(t *testing.T) {
	t.Parallel()

	programmer := newBlockingProgrammer()
	programmer.progress = []int{10, 50, 30, 150}
	sink := &recordingSink{}
	s := New("/dev/ttyUSB0", testConfig(t), nil, programmer, sink)
	writeImages(t, s)

	close(programmer.release)
	require.NoError(t, s.StartFlash(context.Background()))
	s.Wait()

	// Progress never goes back and stays within bounds.
	require.Equal(t, []int{0, 10, 50, 100}, sink.progress())

	lines := sink.lines()
	require.Equal(t, "Starting ESP32 flash process...", lines[0])
	require.Equal(t, []string{"Flash process completed successfully!", "You can now reset ESP32 to normal mode"}, lines[len(lines)-2:])

	// The result is the last event.
	events := sink.snapshot()
	require.Equal(t, api.EventResult, events[len(events)-1].kind)
	require.Len(t, sink.results(), 1)
}

func TestFlashScenario(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{output: "Connecting....\nHash of data verified.\n"}
	sink := &recordingSink{}
	s := New("/dev/ttyUSB0", testConfig(t), nil, esptool.NewProgrammer(runner, "esptool.py"), sink)
	writeImages(t, s)

	require.NoError(t, s.StartFlash(context.Background()))
	s.Wait()

	require.Equal(t, []int{0, 10, 100}, sink.progress())
	require.Equal(t, []api.OperationOutcome{{Succeeded: true, Message: "ESP32 has been successfully flashed!"}}, sink.results())
	require.Contains(t, sink.lines(), "Hash of data verified.")

	args := esptool.NewProgrammer(runner, "esptool.py").FlashArgs("/dev/ttyUSB0", s.Images())
	require.Contains(t, sink.lines(), "The firmware command: esptool.py "+joinArgs(args))
}

func TestWorkerPanic(t *testing.T) {
	t.Parallel()

	programmer := newBlockingProgrammer()
	programmer.panics = true
	sink := &recordingSink{}
	s := New("COM3", testConfig(t), nil, programmer, sink)

	close(programmer.release)
	require.NoError(t, s.StartErase(context.Background(), func(string) (bool, error) { return true, nil }))
	s.Wait()

	require.Equal(t, Idle, s.State())
	require.Equal(t, []api.OperationOutcome{{Succeeded: false, Message: "Critical error: serial port vanished"}}, sink.results())
	require.Contains(t, sink.lines(), "Flash memory erase failed!")
}

func TestEraseConfirmation(t *testing.T) {
	t.Parallel()

	programmer := newBlockingProgrammer()
	close(programmer.release)

	sink := &recordingSink{}
	s := New("COM3", testConfig(t), nil, programmer, sink)

	// Declining is a no-op.
	var asked string

	err := s.StartErase(context.Background(), func(question string) (bool, error) {
		asked = question

		return false, nil
	})
	require.NoError(t, err)
	require.Equal(t, ErasePrompt, asked)
	require.Equal(t, Idle, s.State())
	require.Equal(t, []string{"Cleaning canceled by the user"}, sink.lines())
	require.Empty(t, sink.results())
	require.Equal(t, 0, programmer.erases)

	// A confirmation is mandatory.
	require.ErrorIs(t, s.StartErase(context.Background(), nil), ErrNoConfirmation)

	// Accepting runs the erase.
	require.NoError(t, s.StartErase(context.Background(), func(string) (bool, error) { return true, nil }))
	s.Wait()

	require.Equal(t, 1, programmer.erases)
	require.Equal(t, []api.OperationOutcome{{Succeeded: true, Message: "done"}}, sink.results())
}

func TestDownloadScenario(t *testing.T) {
	t.Parallel()

	firmware := []byte("catos firmware image")

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/repos/X/Y/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, `{"tag_name":"v1.2.3","assets":[{"name":"firmware.bin","browser_download_url":%q}]}`, srv.URL+"/firmware.bin")
	})

	mux.HandleFunc("/firmware.bin", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(firmware)))
		_, _ = w.Write(firmware)
	})

	cfg := testConfig(t)
	cfg.Release.APIURL = srv.URL

	fetcher, err := providers.Load(context.Background(), cfg.Release, srv.Client())
	require.NoError(t, err)

	sink := &recordingSink{}
	s := New("/dev/ttyUSB0", cfg, fetcher, newBlockingProgrammer(), sink)
	require.Equal(t, "Unknown", s.CurrentVersion())

	require.NoError(t, s.StartDownload(context.Background()))
	s.Wait()

	require.Equal(t, []api.OperationOutcome{{Succeeded: true, Message: "The firmware has been downloaded successfully: v1.2.3"}}, sink.results())

	progress := sink.progress()
	require.Equal(t, 100, progress[len(progress)-1])
	require.IsNonDecreasing(t, progress)

	require.Equal(t, "v1.2.3", s.CurrentVersion())

	body, err := os.ReadFile(filepath.Join(cfg.Storage.CacheDirectory, "firmware.bin"))
	require.NoError(t, err)
	require.Equal(t, firmware, body)
}

func TestDownloadMissingAsset(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/repos/X/Y/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"v1.2.3","assets":[{"name":"firmware.elf","browser_download_url":"http://invalid/"}]}`))
	})

	cfg := testConfig(t)
	cfg.Release.APIURL = srv.URL

	fetcher, err := providers.Load(context.Background(), cfg.Release, srv.Client())
	require.NoError(t, err)

	sink := &recordingSink{}
	s := New("/dev/ttyUSB0", cfg, fetcher, newBlockingProgrammer(), sink)

	require.NoError(t, s.StartDownload(context.Background()))
	s.Wait()

	require.Equal(t, []api.OperationOutcome{{Succeeded: false, Message: "The firmware.bin file was not found in the release"}}, sink.results())
	require.Contains(t, sink.lines(), "Firmware download failed!")
	require.NoDirExists(t, cfg.Storage.CacheDirectory)
	require.Equal(t, Idle, s.State())
}

func TestRelayDropsLateEvents(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	r := newRelay(api.OperationFlash, "id", sink)

	r.Progress(-5)
	r.Log("first")
	r.Result(api.OperationOutcome{Succeeded: true})
	r.Progress(100)
	r.Log("late")
	r.Result(api.OperationOutcome{Succeeded: false})

	require.Equal(t, []event{
		{op: api.OperationFlash, kind: api.EventProgress, progress: 0},
		{op: api.OperationFlash, kind: api.EventLog, line: "first"},
		{op: api.OperationFlash, kind: api.EventResult, outcome: api.OperationOutcome{Succeeded: true}},
	}, sink.snapshot())
}
