/*
Copyright © 2026 Orkflow Authors
*/
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"Quill/internal/errs"
)

// Theme colors
var (
	colorAccent  = lipgloss.Color("#00afd7")
	colorSuccess = lipgloss.Color("#5fd75f")
	colorWarn    = lipgloss.Color("#d7af00")
	colorError   = lipgloss.Color("#d75f5f")
	colorDim     = lipgloss.Color("#6e7681")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)

// Tool emojis, keyed by tool name
var toolEmojis = map[string]string{
	"calculator":    "🧮",
	"data_analysis": "📊",
	"script":        "⚙️",
	"web_search":    "🔍",
	"wikipedia":     "📚",
	"url_fetch":     "🌐",
}

// ToolEmoji returns the emoji shown next to a tool's output.
func ToolEmoji(tool string) string {
	if e, ok := toolEmojis[tool]; ok {
		return e
	}
	return "🤖"
}

// Box draws lines inside a rounded border.
func Box(lines ...string) string {
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// Reply renders an answer. Error lines are colored.
func Reply(text string) string {
	if strings.HasPrefix(text, "Error: ") {
		return errorStyle.Render(text)
	}
	return text
}

// errText is the user-facing message of err without the "Error: " prefix.
func errText(err error) string {
	return strings.TrimPrefix(errs.UserMessage(err), "Error: ")
}

// fail prints err and exits.
func fail(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render(errs.UserMessage(err)))
	os.Exit(1)
}

// FormatDuration formats seconds into human readable string
func FormatDuration(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%dm %ds", mins, secs)
}

func truncateStr(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func wordWrap(s string, width int) []string {
	if len(s) <= width {
		return []string{s}
	}

	result := []string{}
	for len(s) > width {
		// Find last space before width
		idx := width
		for idx > 0 && s[idx] != ' ' {
			idx--
		}
		if idx == 0 {
			idx = width
		}
		result = append(result, s[:idx])
		s = strings.TrimPrefix(s[idx:], " ")
	}
	if len(s) > 0 {
		result = append(result, s)
	}
	return result
}
