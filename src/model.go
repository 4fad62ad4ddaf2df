package src

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Protocol-Lattice/lattice-studio/src/llm"
	"github.com/Protocol-Lattice/lattice-studio/src/pipeline"
	"github.com/Protocol-Lattice/lattice-studio/src/project"
	"github.com/Protocol-Lattice/lattice-studio/src/sandbox"
	"github.com/Protocol-Lattice/lattice-studio/src/store"
	"github.com/Protocol-Lattice/lattice-studio/src/terminal"
	"github.com/Protocol-Lattice/lattice-studio/src/ui"
)

// Deps are the long-lived services the TUI drives.
type Deps struct {
	Session  *pipeline.Session
	Registry *llm.Registry
	Store    *store.FileStore
	Terminal *terminal.Simulator
	Preview  *sandbox.Server
	Logs     *sandbox.LogBuffer
	Logger   *slog.Logger
}

type model struct {
	ctx  context.Context
	deps Deps
	log  *slog.Logger

	tab      ui.Tab
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   ui.Styles
	dark     bool
	width    int
	height   int

	isThinking  bool
	thinking    string
	pending     int
	status      string
	statusErr   bool
	notes       []string
	attachments []project.Attachment

	selectedFile string
	lastTurn     *pipeline.TurnResult
	showDiff     bool

	events  chan tea.Msg
	paneSig string
}

func NewModel(ctx context.Context, deps Deps) *model {
	ta := textarea.New()
	ta.Placeholder = "Describe the app to build, or type /help..."
	ta.Focus()
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	dark := true
	if deps.Store != nil {
		dark = deps.Store.DarkMode()
	}
	st := ui.NewStyles(dark)

	s := spinner.New()
	s.Spinner = spinner.Line
	s.Style = st.Thinking

	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	m := &model{
		ctx:      ctx,
		deps:     deps,
		log:      log,
		tab:      ui.TabChat,
		textarea: ta,
		viewport: viewport.New(0, 0),
		spinner:  s,
		styles:   st,
		dark:     dark,
		events:   make(chan tea.Msg, 64),
	}
	deps.Session.OnChange(func(e pipeline.Event) { m.push(sessionEventMsg{e}) })
	if deps.Terminal != nil {
		deps.Terminal.SetOnChange(func() { m.push(terminalChangedMsg{}) })
	}
	m.publishPreview()
	m.syncPane()
	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.events), scheduleRefresh())
}

func followsTail(tab ui.Tab) bool {
	return tab == ui.TabChat || tab == ui.TabConsole || tab == ui.TabTerminal
}

// Run drives the TUI until the user quits.
func Run(ctx context.Context, deps Deps) (err error) {
	defer recoverPanic(&err)
	m := NewModel(ctx, deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
