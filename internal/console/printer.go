// Package console renders provisioning events and logs on a terminal.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/catdevcode/catos-flasher/api"
)

// Mode selects how events are rendered.
type Mode int

const (
	// ModePlain prints one line per event, progress in steps of ten percent.
	ModePlain Mode = iota

	// ModeTerminal redraws a progress bar in place.
	ModeTerminal

	// ModeJSON prints one JSON encoded api.Event per line.
	ModeJSON
)

// Printer writes session events to a writer.
type Printer struct {
	mu   sync.Mutex
	w    io.Writer
	mode Mode

	bar       *ProgressBar
	barActive bool

	outcome    *api.OperationOutcome
	lastPlain  int
	currentOp  api.Operation
	encodeFail error
}

// NewPrinter returns a Printer rendering to w in the given mode.
func NewPrinter(w io.Writer, mode Mode) *Printer {
	return &Printer{
		w:         w,
		mode:      mode,
		bar:       NewProgressBar(30),
		lastPlain: -1,
	}
}

// Progress renders a progress update.
func (p *Printer) Progress(op api.Operation, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.track(op)

	switch p.mode {
	case ModeJSON:
		p.encode(api.Event{Type: api.EventProgress, Operation: op, Progress: percent})
	case ModeTerminal:
		if int64(percent) == p.bar.GetProgress() && (p.barActive || p.bar.Complete()) {
			return
		}

		p.bar.SetProgress(int64(percent))
		p.drawBar()

		// A full bar stays on screen.
		if p.bar.Complete() {
			_, _ = fmt.Fprintln(p.w)
			p.barActive = false
		}
	default:
		// Only print round values to keep logs short.
		if percent%10 != 0 || percent == p.lastPlain {
			return
		}

		p.lastPlain = percent
		_, _ = fmt.Fprintf(p.w, "%s: %d%%\n", op, percent)
	}
}

// Log renders a console line.
func (p *Printer) Log(op api.Operation, line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.track(op)

	switch p.mode {
	case ModeJSON:
		p.encode(api.Event{Type: api.EventLog, Operation: op, Message: line})
	case ModeTerminal:
		p.clearBar()
		_, _ = fmt.Fprintln(p.w, line)

		if p.barActive {
			p.drawBar()
		}
	default:
		_, _ = fmt.Fprintln(p.w, line)
	}
}

// Result renders the outcome of an operation.
func (p *Printer) Result(op api.Operation, outcome api.OperationOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.track(op)
	p.outcome = &outcome

	if p.mode == ModeJSON {
		p.encode(api.Event{Type: api.EventResult, Operation: op, Outcome: &outcome})

		return
	}

	if p.mode == ModeTerminal && p.barActive {
		_, _ = fmt.Fprintln(p.w)
		p.barActive = false
	}

	title := "Error"
	if outcome.Succeeded {
		title = "Success!"
	}

	_, _ = fmt.Fprintf(p.w, "%s %s\n", title, outcome.Message)
}

// Outcome returns the last delivered outcome.
func (p *Printer) Outcome() (api.OperationOutcome, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.outcome == nil {
		return api.OperationOutcome{}, false
	}

	return *p.outcome, true
}

// Err returns the first error hit while encoding JSON events.
func (p *Printer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.encodeFail
}

// track resets the per-operation state when a new operation shows up.
func (p *Printer) track(op api.Operation) {
	if op == p.currentOp && p.outcome == nil {
		return
	}

	p.currentOp = op
	p.outcome = nil
	p.lastPlain = -1
	p.barActive = false
	p.bar.SetProgress(0)
}

func (p *Printer) drawBar() {
	p.barActive = true
	_, _ = fmt.Fprintf(p.w, "\r%-8s %s", p.currentOp, p.bar.Render())
}

func (p *Printer) clearBar() {
	if p.barActive {
		_, _ = io.WriteString(p.w, "\r\033[K")
	}
}

func (p *Printer) encode(e api.Event) {
	err := json.NewEncoder(p.w).Encode(e)
	if err != nil && p.encodeFail == nil {
		p.encodeFail = err
	}
}
