package src

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Protocol-Lattice/lattice-studio/src/bundler"
	"github.com/Protocol-Lattice/lattice-studio/src/pipeline"
	"github.com/Protocol-Lattice/lattice-studio/src/ui"
)

// turnDoneMsg is the final message from a generation turn.
type turnDoneMsg struct {
	res pipeline.TurnResult
	err error
}

// statusMsg reports the outcome of a background command.
type statusMsg struct {
	text string
	err  error
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		frame := m.styles.ChatContainer.GetHorizontalFrameSize()
		m.textarea.SetWidth(m.width - frame)
		m.viewport.Width = m.width - frame
		m.viewport.Height = max(3, m.height-ui.ChromeHeight(m.state(), m.styles)-m.textarea.Height())
		m.paneSig = ""
		m.syncPane()
		return m, nil

	case sessionEventMsg:
		switch msg.event.Kind {
		case pipeline.EventFiles, pipeline.EventProject:
			m.publishPreview()
		}
		if msg.event.Kind == pipeline.EventProject {
			m.lastTurn, m.showDiff, m.selectedFile = nil, false, ""
			if m.deps.Logs != nil {
				m.deps.Logs.Clear()
			}
		}
		m.syncPane()
		return m, waitForEvent(m.events)

	case terminalChangedMsg:
		m.syncPane()
		return m, waitForEvent(m.events)

	case refreshTickMsg:
		if m.tab != ui.TabChat {
			m.syncPane()
		}
		return m, scheduleRefresh()

	case turnDoneMsg:
		m.pending--
		if m.pending <= 0 {
			m.pending = 0
			m.isThinking = false
		}
		if msg.err != nil {
			m.setStatus("", msg.err)
		} else {
			res := msg.res
			m.lastTurn = &res
			m.setStatus(fmt.Sprintf("Applied %d change(s). /diff shows them.", len(res.Audit)), nil)
		}
		m.syncPane()
		return m, nil

	case statusMsg:
		m.setStatus(msg.text, msg.err)
		m.syncPane()
		return m, nil

	case spinner.TickMsg:
		if !m.isThinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {

		case "ctrl+c":
			return m, tea.Quit

		case "tab":
			m.switchTab(m.tab.Next(1))
			return m, nil

		case "shift+tab":
			m.switchTab(m.tab.Next(-1))
			return m, nil

		case "esc":
			if len(m.attachments) > 0 {
				m.attachments = nil
				m.setStatus("Attachments dropped.", nil)
			}
			return m, nil

		case "enter":
			raw := strings.TrimSpace(m.textarea.Value())
			if raw == "" && len(m.attachments) == 0 {
				return m, nil
			}
			m.textarea.Reset()
			if strings.HasPrefix(raw, "/") {
				return m, m.runCommand(raw)
			}
			return m, m.runPrompt(raw)
		}
	}

	var taCmd, vpCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

func (m *model) switchTab(t ui.Tab) {
	m.tab = t
	m.paneSig = ""
	m.syncPane()
}

func (m *model) setStatus(text string, err error) {
	m.statusErr = err != nil
	if err != nil {
		text = "❌ " + err.Error()
	}
	m.status = text
}

// runPrompt starts a generation turn. Turns submitted while one is running
// queue behind it inside the session.
func (m *model) runPrompt(raw string) tea.Cmd {
	attachments := m.attachments
	m.attachments = nil
	m.pending++
	m.isThinking = true
	m.thinking = "planning and generating"
	if m.pending > 1 {
		m.thinking = fmt.Sprintf("planning and generating (%d queued)", m.pending-1)
	}
	m.switchTab(ui.TabChat)

	session := m.deps.Session
	ctx := m.ctx
	turn := func() tea.Msg {
		res, err := session.Send(ctx, raw, attachments)
		if errors.Is(err, pipeline.ErrEmptyPrompt) {
			err = nil
		}
		return turnDoneMsg{res: res, err: err}
	}
	return tea.Batch(turn, m.spinner.Tick)
}

// publishPreview bundles the current files into the preview server.
func (m *model) publishPreview() {
	if m.deps.Preview == nil {
		return
	}
	meta := m.deps.Session.Metadata()
	m.deps.Preview.Publish(bundler.Bundle(m.deps.Session.Files(), meta.Stack))
}
