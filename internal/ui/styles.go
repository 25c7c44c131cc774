package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Color palette - consistent across all TUI components
var (
	Green  = lipgloss.Color("10") // success, ready
	Red    = lipgloss.Color("9")  // error
	Yellow = lipgloss.Color("11") // notices
	Grey   = lipgloss.Color("8")  // muted text
	Blue   = lipgloss.Color("4")  // headers, borders
	White  = lipgloss.Color("15") // header text
)

// Status indicators
const (
	SuccessIcon = "✓"
	FailIcon    = "✗"
	RemoteIcon  = "☁"
	LocalIcon   = "⌂"
)

// Theme holds the chat colors.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	UserMsgBg lipgloss.Color
}

// DefaultTheme returns the built-in chat theme.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#0668E1"),
		Secondary: lipgloss.Color("#7B61FF"),
		Success:   Green,
		Error:     Red,
		Warning:   Yellow,
		Muted:     Grey,
		Text:      White,
		UserMsgBg: lipgloss.Color("#1F2A44"),
	}
}

// Styles returns styled text helpers bound to a renderer
type Styles struct {
	renderer *lipgloss.Renderer
	theme    Theme

	// Text styles
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Muted       lipgloss.Style
	Bold        lipgloss.Style
	Highlighted lipgloss.Style

	// Chat styles
	Header    lipgloss.Style
	UserMsg   lipgloss.Style
	BotLabel  lipgloss.Style
	Timestamp lipgloss.Style
	Chip      lipgloss.Style
	Notice    lipgloss.Style
	Footer    lipgloss.Style
}

// NewStyles creates a new Styles instance for the given output
func NewStyles(output io.Writer) *Styles {
	return NewStylesWithTheme(output, DefaultTheme())
}

// NewStylesWithTheme creates styles for output using theme.
func NewStylesWithTheme(output io.Writer, theme Theme) *Styles {
	r := lipgloss.NewRenderer(output)

	return &Styles{
		renderer: r,
		theme:    theme,

		Title: r.NewStyle().
			Bold(true).
			Foreground(theme.Text),

		Subtitle: r.NewStyle().
			Foreground(theme.Muted),

		Success: r.NewStyle().
			Foreground(theme.Success),

		Error: r.NewStyle().
			Foreground(theme.Error),

		Muted: r.NewStyle().
			Foreground(theme.Muted),

		Bold: r.NewStyle().
			Bold(true),

		Highlighted: r.NewStyle().
			Bold(true).
			Foreground(theme.Success),

		Header: r.NewStyle().
			Bold(true).
			Foreground(theme.Text).
			Background(theme.Primary).
			Padding(0, 1),

		UserMsg: r.NewStyle().
			Foreground(theme.Text).
			Background(theme.UserMsgBg).
			Padding(0, 1),

		BotLabel: r.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Timestamp: r.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Chip: r.NewStyle().
			Foreground(theme.Primary).
			Underline(true),

		Notice: r.NewStyle().
			Bold(true).
			Foreground(theme.Warning),

		Footer: r.NewStyle().
			Foreground(theme.Muted),
	}
}

// DefaultStyles returns styles for stderr (default TUI output)
func DefaultStyles() *Styles {
	return NewStyles(os.Stderr)
}

// Theme returns the colors these styles were built from.
func (s *Styles) Theme() Theme {
	return s.theme
}

// FormatResult returns a styled success/fail result
func (s *Styles) FormatResult(success bool, msg string) string {
	if success {
		return s.Success.Render(SuccessIcon+" ") + msg
	}
	return s.Error.Render(FailIcon+" ") + msg
}

// FormatMode returns a short styled badge for an assistant mode label.
func (s *Styles) FormatMode(local bool, label string) string {
	if local {
		return s.Highlighted.Render(LocalIcon + " " + label)
	}
	return s.Success.Render(RemoteIcon + " " + label)
}

// Truncate shortens s to maxLen terminal cells with ellipsis
func Truncate(s string, maxLen int) string {
	if maxLen <= 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}
