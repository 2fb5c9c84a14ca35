package main

import (
	"fmt"
	"strconv"
	"strings"
)

// formatSection properly indents a text section.
func formatSection(header string, content string) string {
	var out strings.Builder

	// Add section header
	if header != "" {
		_, _ = out.WriteString(header + ":\n")
	}

	// Indent the content
	for line := range strings.SplitSeq(content, "\n") {
		if line != "" {
			_, _ = out.WriteString("  ")
		}

		_, _ = out.WriteString(line + "\n")
	}

	if header != "" {
		_, _ = out.WriteString("\n")

		return out.String()
	}

	return strings.TrimSuffix(out.String(), "\n")
}

// menuPrompt renders a numbered list of options and returns the prompt with the valid selections.
func menuPrompt(title string, options []string) (string, []string) {
	var prompt strings.Builder

	selections := make([]string, 0, len(options))

	_, _ = prompt.WriteString("\n" + title + ":\n")
	for i, option := range options {
		selection := strconv.Itoa(i + 1)
		selections = append(selections, selection)

		_, _ = prompt.WriteString(fmt.Sprintf("%s) %s\n", selection, option))
	}

	_, _ = prompt.WriteString("\nSelection: ")

	return prompt.String(), selections
}
