package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMenuPrompt(t *testing.T) {
	t.Parallel()

	prompt, selections := menuPrompt("Serial ports", []string{"COM3", "/dev/ttyUSB0"})
	require.Equal(t, "\nSerial ports:\n1) COM3\n2) /dev/ttyUSB0\n\nSelection: ", prompt)
	require.Equal(t, []string{"1", "2"}, selections)
}

func TestFormatSection(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Description:\n  first\n\n  second\n\n", formatSection("Description", "first\n\nsecond"))
	require.Equal(t, "  first\n  second", formatSection("", "first\nsecond"))
}
