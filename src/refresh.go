package src

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Protocol-Lattice/lattice-studio/src/pipeline"
)

const refreshInterval = 250 * time.Millisecond

// refreshTickMsg polls the console and terminal panes, whose sources change
// outside the session.
type refreshTickMsg struct{}

// sessionEventMsg carries a pipeline.Event into the update loop.
type sessionEventMsg struct{ event pipeline.Event }

// terminalChangedMsg is sent when a simulated command changes state.
type terminalChangedMsg struct{}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

// waitForEvent blocks on the model's event channel; the update loop re-arms
// it after every delivery.
func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// push hands msg to the update loop without blocking the caller. Session
// observers and simulator callbacks run on foreign goroutines.
func (m *model) push(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

// syncPane re-renders the active pane. Unchanged content keeps the scroll
// position; the chat pane follows new messages.
func (m *model) syncPane() {
	content := m.paneContent()
	sig := hashString(content)
	if sig == m.paneSig {
		return
	}
	m.paneSig = sig
	m.viewport.SetContent(content)
	if followsTail(m.tab) {
		m.viewport.GotoBottom()
	}
}
