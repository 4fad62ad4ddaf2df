package src

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Protocol-Lattice/lattice-studio/src/bundler"
	"github.com/Protocol-Lattice/lattice-studio/src/llm"
	"github.com/Protocol-Lattice/lattice-studio/src/project"
	"github.com/Protocol-Lattice/lattice-studio/src/store"
	"github.com/Protocol-Lattice/lattice-studio/src/ui"
)

// CustomKeyEnv supplies the API key for /addmodel.
const CustomKeyEnv = "LATTICE_STUDIO_CUSTOM_KEY"

const helpText = `Commands:
  /new [stack]                         start a new project (vanilla, react, nextjs)
  /stack <stack>                       replace the files with another stack's template
  /projects                            list saved projects
  /open <id>                           open a saved project
  /title <name>                        rename the project
  /model <id>                          switch the generation model
  /models                              list available models
  /addmodel <id> <base-url> <model> [name]  add an OpenAI-compatible endpoint
  /touch                               add an empty script file
  /cat <path>                          show a file in the Files tab
  /edit <path>                         edit a file in $EDITOR
  /rename <old> <new>                  rename a file
  /rm <path>                           delete a file
  /upload <file>...                    copy local files into the project
  /attach <file>                       attach an image or text file to the next prompt
  /diff                                show the last turn's changes
  /export [path]                       write the project as a zip archive
  /copy                                copy the bundled preview HTML to the clipboard
  /theme                               toggle dark and light themes
  /clear                               clear console, terminal and notes
  /help                                show this help`

type command func(m *model, args []string) tea.Cmd

var commands = map[string]command{
	"new":      (*model).cmdNew,
	"stack":    (*model).cmdStack,
	"projects": (*model).cmdProjects,
	"open":     (*model).cmdOpen,
	"title":    (*model).cmdTitle,
	"model":    (*model).cmdModel,
	"models":   (*model).cmdModels,
	"addmodel": (*model).cmdAddModel,
	"touch":    (*model).cmdTouch,
	"cat":      (*model).cmdCat,
	"edit":     (*model).cmdEdit,
	"rename":   (*model).cmdRename,
	"rm":       (*model).cmdRemove,
	"upload":   (*model).cmdUpload,
	"attach":   (*model).cmdAttach,
	"diff":     (*model).cmdDiff,
	"export":   (*model).cmdExport,
	"copy":     (*model).cmdCopy,
	"theme":    (*model).cmdTheme,
	"clear":    (*model).cmdClear,
	"help":     (*model).cmdHelp,
}

// switchesProject marks commands that replace the active project. They wait
// for the session's turn lock, so they are refused while a turn is running.
var switchesProject = map[string]bool{"new": true, "stack": true, "open": true}

func (m *model) runCommand(line string) tea.Cmd {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	cmd, ok := commands[name]
	if !ok {
		m.setStatus("", fmt.Errorf("unknown command /%s, try /help", name))
		return nil
	}
	if switchesProject[name] && (m.pending > 0 || m.deps.Session.Busy()) {
		m.setStatus("", fmt.Errorf("/%s is unavailable while a generation is running", name))
		return nil
	}
	m.log.Debug("command", "name", name, "args", len(fields)-1)
	c := cmd(m, fields[1:])
	m.syncPane()
	return c
}

func (m *model) note(lines ...string) {
	m.notes = append(m.notes, lines...)
	m.switchTab(ui.TabChat)
}

func (m *model) fail(err error) tea.Cmd {
	m.setStatus("", err)
	return nil
}

func usage(format string) error { return fmt.Errorf("usage: %s", format) }

func (m *model) cmdNew(args []string) tea.Cmd {
	stack := m.deps.Session.Metadata().Stack
	if len(args) > 0 {
		s, err := project.ParseStack(args[0])
		if err != nil {
			return m.fail(err)
		}
		stack = s
	}
	meta := m.deps.Session.NewProject(stack)
	m.notes = nil
	m.setStatus(fmt.Sprintf("New %s project %s.", stack.Label(), meta.ID[:8]), nil)
	return nil
}

func (m *model) cmdStack(args []string) tea.Cmd {
	if len(args) != 1 {
		return m.fail(usage("/stack <vanilla|react|nextjs>"))
	}
	s, err := project.ParseStack(args[0])
	if err != nil {
		return m.fail(err)
	}
	m.deps.Session.SwitchStack(s)
	m.setStatus("Switched to "+s.Label()+".", nil)
	return nil
}

func (m *model) cmdProjects([]string) tea.Cmd {
	metas, err := m.deps.Session.Projects()
	if err != nil {
		return m.fail(err)
	}
	current := m.deps.Session.Metadata().ID
	lines := []string{"Projects:"}
	for _, p := range metas {
		marker := " "
		if p.ID == current {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf(" %s %s  %-30s %-8s %s", marker, p.ID, p.Title, p.Stack, p.LastModified.Format("2006-01-02 15:04")))
	}
	m.note(lines...)
	return nil
}

func (m *model) cmdOpen(args []string) tea.Cmd {
	if len(args) != 1 {
		return m.fail(usage("/open <id>"))
	}
	id := args[0]
	if metas, err := m.deps.Session.Projects(); err == nil {
		for _, p := range metas {
			if strings.HasPrefix(p.ID, id) {
				id = p.ID
				break
			}
		}
	}
	if err := m.deps.Session.LoadProject(id); err != nil {
		return m.fail(err)
	}
	m.notes = nil
	m.setStatus("Opened "+m.deps.Session.Metadata().Title+".", nil)
	return nil
}

func (m *model) cmdTitle(args []string) tea.Cmd {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return m.fail(usage("/title <name>"))
	}
	m.deps.Session.Rename(title)
	m.setStatus("Renamed project.", nil)
	return nil
}

func (m *model) cmdModel(args []string) tea.Cmd {
	if len(args) != 1 {
		return m.fail(usage("/model <id>"))
	}
	m.deps.Session.SetModel(args[0])
	m.setStatus("Model set to "+args[0]+".", nil)
	return nil
}

func (m *model) cmdModels([]string) tea.Cmd {
	lines := []string{"Models:"}
	current := m.deps.Session.Model()
	labels := map[string]string{}
	for _, mm := range llm.ManagedModels {
		labels[mm.ID] = mm.Label + " · " + mm.Description
	}
	for _, c := range m.deps.Session.CustomModels() {
		labels[c.ID] = c.Name + " · " + c.BaseURL
	}
	var ids []string
	if m.deps.Registry != nil {
		ids = m.deps.Registry.IDs()
	}
	for _, id := range ids {
		marker := " "
		if id == current {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf(" %s %-42s %s", marker, id, labels[id]))
	}
	lines = append(lines, "   provider:model (openai, anthropic, ollama, gemini) and utcp:<name> ids also work.")
	m.note(lines...)
	return nil
}

func (m *model) cmdAddModel(args []string) tea.Cmd {
	if len(args) < 3 {
		return m.fail(usage("/addmodel <id> <base-url> <model-id> [name]"))
	}
	cm := project.CustomModel{
		ID:      args[0],
		BaseURL: args[1],
		ModelID: args[2],
		Name:    args[0],
		APIKey:  os.Getenv(CustomKeyEnv),
	}
	if len(args) > 3 {
		cm.Name = strings.Join(args[3:], " ")
	}
	m.setStatus("Testing connection to "+cm.BaseURL+"...", nil)
	session, ctx := m.deps.Session, m.ctx
	return func() tea.Msg {
		if err := session.AddCustomModel(ctx, cm); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: "Added model " + cm.ID + "."}
	}
}

func (m *model) cmdTouch([]string) tea.Cmd {
	name, err := m.deps.Session.NewScratchFile()
	if err != nil {
		return m.fail(err)
	}
	m.selectedFile = name
	m.setStatus("Created "+name+".", nil)
	return nil
}

func (m *model) cmdCat(args []string) tea.Cmd {
	if len(args) != 1 {
		return m.fail(usage("/cat <path>"))
	}
	p := project.CleanPath(args[0])
	if !m.deps.Session.Files().Has(p) {
		return m.fail(fmt.Errorf("%s: %w", p, project.ErrNotFound))
	}
	m.selectedFile, m.showDiff = p, false
	m.switchTab(ui.TabFiles)
	return nil
}

// editorDoneMsg is sent after $EDITOR exits.
type editorDoneMsg struct {
	path, tmp string
	err       error
}

func (m *model) cmdEdit(args []string) tea.Cmd {
	if len(args) != 1 {
		return m.fail(usage("/edit <path>"))
	}
	p := project.CleanPath(args[0])
	f, ok := m.deps.Session.Files().Get(p)
	if !ok {
		return m.fail(fmt.Errorf("%s: %w", p, project.ErrNotFound))
	}
	tmp, err := os.CreateTemp("", "lattice-*"+filepath.Ext(p))
	if err != nil {
		return m.fail(err)
	}
	if _, err := tmp.WriteString(f.Content); err != nil {
		tmp.Close()
		return m.fail(err)
	}
	tmp.Close()

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	c := exec.Command(parts[0], append(parts[1:], tmp.Name())...)
	session := m.deps.Session
	return tea.ExecProcess(c, func(err error) tea.Msg {
		defer os.Remove(tmp.Name())
		if err != nil {
			return statusMsg{err: fmt.Errorf("editor: %w", err)}
		}
		data, err := os.ReadFile(tmp.Name())
		if err != nil {
			return statusMsg{err: err}
		}
		if string(data) == f.Content {
			return statusMsg{text: p + " unchanged."}
		}
		if err := session.EditFile(p, string(data)); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{text: "Saved " + p + "."}
	})
}

func (m *model) cmdRename(args []string) tea.Cmd {
	if len(args) != 2 {
		return m.fail(usage("/rename <old> <new>"))
	}
	if err := m.deps.Session.RenameFile(args[0], args[1]); err != nil {
		return m.fail(err)
	}
	if m.selectedFile == project.CleanPath(args[0]) {
		m.selectedFile = project.CleanPath(args[1])
	}
	m.setStatus("Renamed "+args[0]+" to "+args[1]+".", nil)
	return nil
}

func (m *model) cmdRemove(args []string) tea.Cmd {
	if len(args) != 1 {
		return m.fail(usage("/rm <path>"))
	}
	if err := m.deps.Session.DeleteFile(args[0]); err != nil {
		return m.fail(err)
	}
	m.setStatus("Deleted "+args[0]+".", nil)
	return nil
}

func (m *model) cmdUpload(args []string) tea.Cmd {
	if len(args) == 0 {
		return m.fail(usage("/upload <file>..."))
	}
	files := make([]project.File, 0, len(args))
	for _, a := range args {
		data, err := os.ReadFile(a)
		if err != nil {
			return m.fail(err)
		}
		files = append(files, project.NewFile(filepath.Base(a), string(data)))
	}
	skipped, err := m.deps.Session.UploadFiles(files...)
	if err != nil {
		return m.fail(err)
	}
	msg := fmt.Sprintf("Uploaded %d file(s).", len(files)-len(skipped))
	if len(skipped) > 0 {
		msg += " Skipped existing: " + strings.Join(skipped, ", ")
	}
	m.setStatus(msg, nil)
	return nil
}

func (m *model) cmdAttach(args []string) tea.Cmd {
	if len(args) != 1 {
		return m.fail(usage("/attach <file>"))
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return m.fail(err)
	}
	a := project.AttachmentFromFile(filepath.Base(args[0]), data)
	m.attachments = append(m.attachments, a)
	m.setStatus(fmt.Sprintf("Attached %s (%s). It goes with the next prompt.", a.Name, a.Kind), nil)
	return nil
}

func (m *model) cmdDiff([]string) tea.Cmd {
	if m.lastTurn == nil {
		return m.fail(fmt.Errorf("no generation turn yet"))
	}
	m.showDiff = true
	m.switchTab(ui.TabFiles)
	return nil
}

func (m *model) cmdExport(args []string) tea.Cmd {
	meta := m.deps.Session.Metadata()
	dst := store.ExportName(meta.Title)
	if len(args) > 0 {
		dst = args[0]
	}
	f, err := os.Create(dst)
	if err != nil {
		return m.fail(err)
	}
	if err := store.ExportZip(f, m.deps.Session.Files()); err != nil {
		f.Close()
		return m.fail(err)
	}
	if err := f.Close(); err != nil {
		return m.fail(err)
	}
	m.setStatus("Exported "+dst+".", nil)
	return nil
}

func (m *model) cmdCopy([]string) tea.Cmd {
	doc := bundler.Bundle(m.deps.Session.Files(), m.deps.Session.Metadata().Stack)
	if err := clipboard.WriteAll(doc); err != nil {
		return m.fail(fmt.Errorf("clipboard: %w", err))
	}
	m.setStatus(fmt.Sprintf("Copied %d bytes of preview HTML.", len(doc)), nil)
	return nil
}

func (m *model) cmdTheme([]string) tea.Cmd {
	m.dark = !m.dark
	m.styles = ui.NewStyles(m.dark)
	m.spinner.Style = m.styles.Thinking
	m.paneSig = ""
	if m.deps.Store != nil {
		if err := m.deps.Store.SetDarkMode(m.dark); err != nil {
			m.log.Warn("save theme failed", "err", err)
		}
	}
	return nil
}

func (m *model) cmdClear([]string) tea.Cmd {
	m.notes = nil
	if m.deps.Logs != nil {
		m.deps.Logs.Clear()
	}
	if m.deps.Terminal != nil {
		m.deps.Terminal.Clear()
	}
	m.setStatus("", nil)
	return nil
}

func (m *model) cmdHelp([]string) tea.Cmd {
	m.note(strings.Split(helpText, "\n")...)
	return nil
}
