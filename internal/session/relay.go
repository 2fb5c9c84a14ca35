package session

import (
	"log/slog"
	"sync"

	"github.com/catdevcode/catos-flasher/api"
)

// Sink receives the events of the operations run by a session.
//
// Methods are called from the operation goroutine. For a given operation, any number
// of Progress and Log calls happen before exactly one Result call, and nothing after it.
type Sink interface {
	Progress(op api.Operation, percent int)
	Log(op api.Operation, line string)
	Result(op api.Operation, outcome api.OperationOutcome)
}

// relay forwards the events of a single operation to the sink.
type relay struct {
	op api.Operation
	id string

	sink Sink

	mu       sync.Mutex
	progress int
	done     bool
}

func newRelay(op api.Operation, id string, sink Sink) *relay {
	return &relay{
		op:       op,
		id:       id,
		sink:     sink,
		progress: -1,
	}
}

// Progress forwards a percentage, clamped to [0,100]. Repeated or lower values are dropped.
func (r *relay) Progress(percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	percent = max(0, min(percent, 100))
	if r.done || percent <= r.progress {
		return
	}

	r.progress = percent
	r.sink.Progress(r.op, percent)
}

// Log forwards a console line.
func (r *relay) Log(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return
	}

	slog.Debug(line, slog.String("operation", string(r.op)), slog.String("id", r.id))
	r.sink.Log(r.op, line)
}

// Result forwards the outcome and closes the relay.
func (r *relay) Result(outcome api.OperationOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return
	}

	r.done = true
	r.sink.Result(r.op, outcome)
}
