package llm

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// preview shortens a user message for log lines.
func preview(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, maxLen, "...")
}
