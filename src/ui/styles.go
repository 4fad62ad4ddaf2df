package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Header        lipgloss.Style
	Subtitle      lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style
	Help          lipgloss.Style
	Footer        lipgloss.Style
	Accent        lipgloss.Style
	Error         lipgloss.Style
	Warn          lipgloss.Style
	Info          lipgloss.Style
	Success       lipgloss.Style
	Thinking      lipgloss.Style
	Status        lipgloss.Style
	StatusRight   lipgloss.Style
	ChatContainer lipgloss.Style
	Subtle        lipgloss.Style
	Logo          lipgloss.Style
}

type palette struct {
	accent, fg, subtle, faint, err, warn, info, ok lipgloss.Color
}

var (
	darkPalette = palette{
		accent: "#AD8CFF", fg: "#FFFFFF", subtle: "#999999", faint: "#555",
		err: "#FF5C5C", warn: "#F5C542", info: "#5CC8FF", ok: "#3DDC97",
	}
	lightPalette = palette{
		accent: "#6B3FD4", fg: "#FFFFFF", subtle: "#555555", faint: "#888",
		err: "#C62828", warn: "#B26A00", info: "#0B6FA4", ok: "#1E8E5A",
	}
)

// NewStyles returns the dark or light theme.
func NewStyles(dark bool) Styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(p.faint).
			Faint(true).
			Padding(0, 1),

		Subtitle: lipgloss.NewStyle().
			Foreground(p.subtle).
			Padding(0, 1),

		TabActive: lipgloss.NewStyle().
			Background(p.accent).
			Foreground(p.fg).
			Bold(true).
			Padding(0, 2),

		TabInactive: lipgloss.NewStyle().
			Foreground(p.subtle).
			Padding(0, 2),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777")),

		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777")).
			Faint(true),

		Accent: lipgloss.NewStyle().
			Foreground(p.accent),

		Error: lipgloss.NewStyle().
			Foreground(p.err).
			Bold(true),

		Warn: lipgloss.NewStyle().
			Foreground(p.warn),

		Info: lipgloss.NewStyle().
			Foreground(p.info),

		Success: lipgloss.NewStyle().
			Foreground(p.ok).
			Bold(true),

		Thinking: lipgloss.NewStyle().
			Foreground(p.ok),

		Status: lipgloss.NewStyle().
			Background(p.accent).
			Foreground(p.fg).
			Padding(0, 1),

		StatusRight: lipgloss.NewStyle().
			Inherit(lipgloss.NewStyle().
				Background(p.accent).
				Foreground(p.fg).
				Padding(0, 1)).Align(lipgloss.Right),

		ChatContainer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).BorderForeground(p.accent).Padding(0, 1),

		Subtle: lipgloss.NewStyle().
			Foreground(p.subtle),

		Logo: lipgloss.NewStyle().
			Foreground(p.accent).Bold(true),
	}
}
