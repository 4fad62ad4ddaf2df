package src

import (
	"strings"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
	"github.com/Protocol-Lattice/lattice-studio/src/terminal"
	"github.com/Protocol-Lattice/lattice-studio/src/ui"
)

func (m *model) View() string {
	return ui.Render(m.state(), m.styles)
}

func (m *model) state() ui.State {
	meta := m.deps.Session.Metadata()
	s := ui.State{
		Tab:          m.tab,
		Title:        meta.Title,
		Stack:        meta.Stack.Label(),
		Model:        m.deps.Session.Model(),
		IsThinking:   m.isThinking,
		ThinkingText: m.thinking,
		Status:       m.status,
		StatusErr:    m.statusErr,
		FileCount:    m.deps.Session.Files().Len(),
		TextArea:     m.textarea,
		Viewport:     m.viewport,
		Spinner:      m.spinner,
	}
	for _, a := range m.attachments {
		s.Attachments = append(s.Attachments, a.Name)
	}
	if m.deps.Preview != nil {
		s.PreviewURL = m.deps.Preview.URL()
		_, s.PreviewRevision = m.deps.Preview.Document()
	}
	if m.deps.Logs != nil {
		s.ConsoleCount = len(m.deps.Logs.Entries())
	}
	if m.deps.Terminal != nil {
		s.RunningCommands = m.deps.Terminal.Running()
	}
	return s
}

func (m *model) paneContent() string {
	switch m.tab {
	case ui.TabPreview:
		var url string
		var rev uint64
		if m.deps.Preview != nil {
			url = m.deps.Preview.URL()
			_, rev = m.deps.Preview.Document()
		}
		return ui.RenderPreview(url, rev, m.styles)
	case ui.TabConsole:
		return ui.RenderConsole(m.consoleLines(), m.styles)
	case ui.TabTerminal:
		return ui.RenderTerminal(m.commandLines(), m.styles)
	case ui.TabFiles:
		return m.filesPane()
	default:
		return m.chatPane()
	}
}

func (m *model) chatPane() string {
	msgs := m.deps.Session.Messages()
	lines := make([]ui.ChatLine, 0, len(msgs))
	for _, msg := range msgs {
		line := ui.ChatLine{
			User:    msg.Role == project.RoleUser,
			Content: msg.Content,
			Thought: msg.Thought,
		}
		for _, a := range msg.Attachments {
			line.Attached = append(line.Attached, a.Name)
		}
		for _, f := range msg.ModifiedFiles {
			line.Files = append(line.Files, ui.FileChange{Op: string(f.Operation), Path: f.Path})
		}
		lines = append(lines, line)
	}
	out := ui.RenderChat(lines, m.styles)
	if len(m.notes) > 0 {
		out += m.styles.Subtle.Render(strings.Join(m.notes, "\n")) + "\n"
	}
	return out
}

func (m *model) consoleLines() []ui.ConsoleLine {
	if m.deps.Logs == nil {
		return nil
	}
	entries := m.deps.Logs.Entries()
	out := make([]ui.ConsoleLine, 0, len(entries))
	for _, e := range entries {
		out = append(out, ui.ConsoleLine{Level: string(e.Level), Message: e.Message, Time: e.Timestamp})
	}
	return out
}

func (m *model) commandLines() []ui.CommandLine {
	if m.deps.Terminal == nil {
		return nil
	}
	entries := m.deps.Terminal.Entries()
	out := make([]ui.CommandLine, 0, len(entries))
	for _, e := range entries {
		out = append(out, ui.CommandLine{
			Command: e.Command,
			Output:  e.Output,
			Running: e.Status == terminal.StatusRunning,
			Time:    e.Timestamp,
		})
	}
	return out
}

func (m *model) filesPane() string {
	if m.showDiff && m.lastTurn != nil {
		var b strings.Builder
		for _, a := range turnDiffs(*m.lastTurn, true) {
			b.WriteString(a.Diff)
			b.WriteString("\n")
		}
		if b.Len() == 0 {
			return m.styles.Subtle.Render("The last turn changed nothing.")
		}
		return b.String()
	}
	files := m.deps.Session.Files()
	rows := make([]ui.FileRow, 0, files.Len())
	for _, f := range files.Files() {
		rows = append(rows, ui.FileRow{Path: f.Path, Language: f.Language, Size: int64(len(f.Content))})
	}
	content := ""
	if f, ok := files.Get(m.selectedFile); ok {
		content = f.Content
	}
	selected := m.selectedFile
	if !files.Has(selected) {
		selected = ""
	}
	return ui.RenderFiles(rows, selected, content, m.styles)
}
