package console

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// ANSI color sequences.
const (
	colorReset  = "\033[0m"
	colorBlue   = "\033[34m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorPurple = "\033[35m"
)

// TextHandler is a compact slog.Handler for terminal output.
type TextHandler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Leveler
	color bool
	attrs []slog.Attr
}

// NewTextHandler returns a TextHandler writing records at or above level to out.
func NewTextHandler(out io.Writer, level slog.Leveler, color bool) *TextHandler {
	return &TextHandler{
		w:     out,
		mu:    &sync.Mutex{},
		level: level,
		color: color,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *TextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)

	return &clone
}

// WithGroup is a no-op, groups are flattened.
func (h *TextHandler) WithGroup(_ string) slog.Handler {
	return h
}

// Handle handles the Record.
func (h *TextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	// Build up the base line with timestamp, log level, and message.
	_, _ = buf.WriteString(r.Time.Format(time.DateTime) + " ")

	var levelColor string

	switch {
	case r.Level >= slog.LevelError:
		levelColor = colorRed
	case r.Level >= slog.LevelWarn:
		levelColor = colorYellow
	case r.Level >= slog.LevelInfo:
		levelColor = colorGreen
	default:
		levelColor = colorBlue
	}

	_, _ = buf.WriteString(h.paint(levelColor, r.Level.String()) + " ")
	_, _ = buf.WriteString(r.Message)

	// Get the attributes for this record.
	attrs := make(map[string]string, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.String()
	}

	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()

		return true
	})

	if len(attrs) > 0 {
		// Sort the keys so we have a consistent output.
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		var kv strings.Builder
		for _, k := range keys {
			_, _ = kv.WriteString(" " + k + "=" + attrs[k])
		}

		_, _ = buf.WriteString(h.paint(colorPurple, kv.String()))
	}

	_, _ = buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.w, buf.String())

	return err
}

func (h *TextHandler) paint(color string, s string) string {
	if !h.color {
		return s
	}

	return color + s + colorReset
}
