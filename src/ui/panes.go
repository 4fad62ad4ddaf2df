package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pane renderers produce viewport content for each tab.

func RenderChat(lines []ChatLine, styles Styles) string {
	var b strings.Builder
	for _, l := range lines {
		if l.User {
			b.WriteString(styles.Accent.Render("You: ") + l.Content + "\n")
			for _, name := range l.Attached {
				b.WriteString(styles.Subtle.Render("  📎 "+name) + "\n")
			}
			b.WriteString("\n")
			continue
		}
		content := l.Content
		if strings.HasPrefix(content, "Error: ") {
			b.WriteString(styles.Error.Render("❌ "+content) + "\n")
		} else {
			b.WriteString(styles.Accent.Render("Lattice: ") + content + "\n")
		}
		if l.Thought != "" {
			for _, t := range strings.Split(l.Thought, "\n") {
				b.WriteString(styles.Subtle.Render("  │ "+t) + "\n")
			}
		}
		for _, f := range l.Files {
			b.WriteString(opStyle(f.Op, styles).Render(fmt.Sprintf("  %-6s %s", f.Op, f.Path)) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func opStyle(op string, styles Styles) lipgloss.Style {
	switch op {
	case "CREATE":
		return styles.Success
	case "DELETE":
		return styles.Error
	default:
		return styles.Info
	}
}

func RenderPreview(url string, revision uint64, styles Styles) string {
	if url == "" {
		return styles.Subtle.Render("Preview server is not running.")
	}
	return strings.Join([]string{
		styles.Success.Render("● Live preview"),
		"",
		"Open " + styles.Accent.Render(url) + " in a browser.",
		styles.Subtle.Render(fmt.Sprintf("Document revision %d. The page reloads itself when files change.", revision)),
		styles.Subtle.Render("Console output from the page appears in the Console tab."),
	}, "\n")
}

func RenderConsole(lines []ConsoleLine, styles Styles) string {
	if len(lines) == 0 {
		return styles.Subtle.Render("No console output.")
	}
	var b strings.Builder
	for _, l := range lines {
		st := styles.Subtle
		switch l.Level {
		case "error":
			st = styles.Error
		case "warn":
			st = styles.Warn
		case "info":
			st = styles.Info
		}
		b.WriteString(st.Render(fmt.Sprintf("[%s] %-5s %s", l.Time.Format("15:04:05"), l.Level, l.Message)) + "\n")
	}
	return b.String()
}

func RenderTerminal(lines []CommandLine, styles Styles) string {
	if len(lines) == 0 {
		return styles.Subtle.Render("No commands yet.")
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(styles.Accent.Render("$ ") + l.Command + "\n")
		if l.Running {
			b.WriteString(styles.Warn.Render("  "+l.Output) + "\n")
		} else {
			b.WriteString(styles.Success.Render("  "+l.Output) + "\n")
		}
	}
	return b.String()
}

// RenderFiles lists the project files, then the selected file's content.
func RenderFiles(rows []FileRow, selected, content string, styles Styles) string {
	var b strings.Builder
	for _, r := range rows {
		marker := "  "
		st := styles.Subtle
		if r.Path == selected {
			marker = "▸ "
			st = styles.Accent
		}
		b.WriteString(st.Render(fmt.Sprintf("%s%-40s %-12s %8s", marker, r.Path, r.Language, humanSize(r.Size))) + "\n")
	}
	if selected != "" {
		b.WriteString("\n" + styles.Subtitle.Render("── "+selected+" ──") + "\n")
		b.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}
