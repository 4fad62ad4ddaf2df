package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
)

// Tab is the pane shown above the input box.
type Tab int

const (
	TabChat Tab = iota
	TabPreview
	TabConsole
	TabTerminal
	TabFiles
)

// Tabs in display order.
var Tabs = []Tab{TabChat, TabPreview, TabConsole, TabTerminal, TabFiles}

func (t Tab) String() string {
	switch t {
	case TabPreview:
		return "Preview"
	case TabConsole:
		return "Console"
	case TabTerminal:
		return "Terminal"
	case TabFiles:
		return "Files"
	default:
		return "Chat"
	}
}

// Next cycles forward (delta 1) or backward (delta -1) through Tabs.
func (t Tab) Next(delta int) Tab {
	n := len(Tabs)
	return Tabs[((int(t)+delta)%n+n)%n]
}

// ChatLine is one transcript entry.
type ChatLine struct {
	User     bool
	Content  string
	Thought  string
	Files    []FileChange
	Attached []string
}

// FileChange is one audit row under an assistant message.
type FileChange struct {
	Op   string
	Path string
}

// ConsoleLine is one record forwarded from the preview's console.
type ConsoleLine struct {
	Level   string
	Message string
	Time    time.Time
}

// CommandLine is one simulated terminal command.
type CommandLine struct {
	Command string
	Output  string
	Running bool
	Time    time.Time
}

// FileRow is one project file in the Files pane.
type FileRow struct {
	Path     string
	Language string
	Size     int64
}

// State contains all the data required to render the UI.
// This decouples the renderer from the main application logic.
type State struct {
	Tab          Tab
	Title        string
	Stack        string
	Model        string
	IsThinking   bool
	ThinkingText string
	Status       string
	StatusErr    bool
	Attachments  []string

	PreviewURL      string
	PreviewRevision uint64
	FileCount       int
	ConsoleCount    int
	RunningCommands int

	// Bubble Tea models
	TextArea textarea.Model
	Viewport viewport.Model
	Spinner  spinner.Model
}
