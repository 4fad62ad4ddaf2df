package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const Logo = `╦  ╔═╗╔╦╗╔╦╗╦╔═╗╔═╗  ╔═╗╔╦╗╦ ╦╔╦╗╦╔═╗
║  ╠═╣ ║  ║ ║║  ║╣   ╚═╗ ║ ║ ║ ║║║║ ║
╩═╝╩ ╩ ╩  ╩ ╩╚═╝╚═╝  ╚═╝ ╩ ╚═╝═╩╝╩╚═╝`

// Render generates the full UI string based on the provided state.
func Render(s State, styles Styles) string {
	header := renderHeader(s, styles)
	body := renderBody(s, styles)
	footer := renderFooter(s, styles)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func renderHeader(s State, styles Styles) string {
	title := s.Title
	if title == "" {
		title = "Untitled Project"
	}
	subtitle := styles.Header.Render(fmt.Sprintf("Protocol Lattice · %s", title))
	return lipgloss.JoinVertical(lipgloss.Left, styles.Logo.Render(Logo), subtitle)
}

func renderFooter(s State, styles Styles) string {
	help := "ctrl+c: quit | tab: switch pane | enter: send | /help: commands"
	if len(s.Attachments) > 0 {
		help += " | esc: drop attachments"
	}
	return styles.Footer.Render(help)
}

// ChromeHeight is the height of everything except the viewport and the
// text area.
func ChromeHeight(s State, styles Styles) int {
	return lipgloss.Height(renderHeader(s, styles)) +
		lipgloss.Height(renderFooter(s, styles)) +
		lipgloss.Height(renderTabs(s, styles)) +
		styles.ChatContainer.GetVerticalFrameSize() +
		3 // status, thinking, attachments
}

func renderBody(s State, styles Styles) string {
	parts := []string{renderTabs(s, styles), s.Viewport.View(), renderStatus(s, styles)}
	if t := renderThinking(s, styles); t != "" {
		parts = append(parts, t)
	}
	if len(s.Attachments) > 0 {
		parts = append(parts, styles.Subtle.Render("📎 "+strings.Join(s.Attachments, ", ")))
	}
	if s.Status != "" {
		st := styles.Subtle
		if s.StatusErr {
			st = styles.Error
		}
		parts = append(parts, st.Render(s.Status))
	}
	parts = append(parts, s.TextArea.View())
	return styles.ChatContainer.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func renderTabs(s State, styles Styles) string {
	items := make([]string, 0, len(Tabs))
	for _, t := range Tabs {
		label := t.String()
		switch t {
		case TabConsole:
			if s.ConsoleCount > 0 {
				label = fmt.Sprintf("%s (%d)", label, s.ConsoleCount)
			}
		case TabTerminal:
			if s.RunningCommands > 0 {
				label = fmt.Sprintf("%s ●", label)
			}
		case TabFiles:
			label = fmt.Sprintf("%s (%d)", label, s.FileCount)
		}
		if t == s.Tab {
			items = append(items, styles.TabActive.Render(label))
		} else {
			items = append(items, styles.TabInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, items...)
}

func renderStatus(s State, styles Styles) string {
	items := []string{
		styles.Status.Render(fmt.Sprintf("STACK: %s", s.Stack)),
		styles.Status.Render(fmt.Sprintf("MODEL: %s", s.Model)),
	}
	if s.PreviewURL != "" {
		items = append(items, styles.StatusRight.Render(fmt.Sprintf("PREVIEW: %s (rev %d)", s.PreviewURL, s.PreviewRevision)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, items...)
}

func renderThinking(s State, styles Styles) string {
	if !s.IsThinking {
		return ""
	}
	return styles.Thinking.Render(fmt.Sprintf("Lattice %s %s", s.Spinner.View(), s.ThinkingText))
}

func humanSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
