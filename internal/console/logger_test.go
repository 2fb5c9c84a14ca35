package console

import (
	"bytes"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(NewTextHandler(&buf, slog.LevelInfo, false))
	logger.Debug("hidden")
	logger.With(slog.String("port", "COM3")).Info("Starting operation", slog.String("operation", "flash"))

	require.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} INFO Starting operation operation=flash port=COM3\n$`), buf.String())
}

func TestTextHandlerColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(NewTextHandler(&buf, slog.LevelDebug, true))
	logger.Error("Flash failed")

	require.Contains(t, buf.String(), colorRed+"ERROR"+colorReset+" Flash failed\n")
}
