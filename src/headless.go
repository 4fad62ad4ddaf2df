package src

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Protocol-Lattice/lattice-studio/src/bundler"
	"github.com/Protocol-Lattice/lattice-studio/src/pipeline"
	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// PreviewFileName is written under the workspace state directory after each
// headless run.
const PreviewFileName = "preview.html"

type FileAction struct {
	Path    string
	Op      project.OpKind
	Message string
	Diff    string
}

type HeadlessResult struct {
	Response    string
	Planned     []string
	Commands    []string
	Actions     []FileAction
	PreviewPath string
}

type HeadlessOptions struct {
	Workspace string
	Prompt    string
	Stack     project.Stack
	ModelID   string
	Models    pipeline.Models
	Logger    *slog.Logger
	// Color enables ANSI colors in the rendered diffs.
	Color bool
}

type commandLog struct {
	mu       sync.Mutex
	commands []string
}

func (c *commandLog) Submit(cmds []string) {
	c.mu.Lock()
	c.commands = append(c.commands, cmds...)
	c.mu.Unlock()
}

// RunHeadless loads a workspace directory as the project, runs one turn
// against it and writes the reconciled files back to disk.
func RunHeadless(ctx context.Context, opts HeadlessOptions) (res *HeadlessResult, err error) {
	defer recoverPanic(&err)

	if opts.Models == nil {
		return nil, errors.New("no model backends configured")
	}
	if strings.TrimSpace(opts.Prompt) == "" {
		return nil, errors.New("prompt cannot be empty")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	stack := opts.Stack
	if stack == "" {
		stack = project.StackVanilla
	}

	abs, err := filepath.Abs(opts.Workspace)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}

	err = withCodegenLock(ctx, abs, log, func() error {
		res, err = runHeadlessTurn(ctx, abs, stack, opts, log)
		return err
	})
	return res, err
}

func runHeadlessTurn(ctx context.Context, root string, stack project.Stack, opts HeadlessOptions, log *slog.Logger) (*HeadlessResult, error) {
	files, err := loadWorkspace(root)
	if err != nil {
		return nil, err
	}
	seeded := files.Len() == 0

	commands := &commandLog{}
	session := pipeline.NewSession(pipeline.Options{
		Models:   opts.Models,
		Terminal: commands,
		Logger:   log,
		ModelID:  opts.ModelID,
		Stack:    stack,
	})
	session.Import(stack, files)
	defer session.Wait()

	turn, err := session.Send(ctx, opts.Prompt, nil)
	if err != nil {
		return nil, err
	}
	if seeded {
		// The template never touched disk, so everything is new.
		turn.Before = project.FileSet{}
	}

	actions, err := writeTurn(root, turn, seeded, opts.Color)
	if err != nil {
		return nil, err
	}

	previewPath := filepath.Join(root, stateDirName, PreviewFileName)
	if err := os.MkdirAll(filepath.Dir(previewPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(previewPath, []byte(bundler.Bundle(turn.After, stack)), 0o644); err != nil {
		return nil, fmt.Errorf("write preview: %w", err)
	}

	msgs := session.Messages()
	return &HeadlessResult{
		Response:    msgs[len(msgs)-1].Content,
		Planned:     turn.Planned,
		Commands:    commands.commands,
		Actions:     actions,
		PreviewPath: previewPath,
	}, nil
}

// writeTurn mirrors the turn's audited paths onto disk. A freshly seeded
// workspace also gets the untouched template files.
func writeTurn(root string, turn pipeline.TurnResult, seeded, color bool) ([]FileAction, error) {
	actions := turnDiffs(turn, color)
	if seeded {
		touched := map[string]bool{}
		for _, a := range actions {
			touched[a.Path] = true
		}
		for _, f := range turn.After.Files() {
			if !touched[f.Path] {
				actions = append(actions, FileAction{Path: f.Path, Op: project.OpCreate, Diff: DiffPretty(f.Path, "", f.Content, color)})
			}
		}
	}

	for i := range actions {
		a := &actions[i]
		dst, err := resolveInRoot(root, a.Path)
		if err != nil {
			a.Message = err.Error()
			continue
		}
		if a.Op == project.OpDelete {
			if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
				return actions, err
			}
			a.Message = "deleted"
			continue
		}
		f, _ := turn.After.Get(a.Path)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return actions, err
		}
		if err := os.WriteFile(dst, []byte(f.Content), 0o644); err != nil {
			return actions, err
		}
		a.Message = "saved"
		if !turn.Before.Has(a.Path) {
			a.Message = "created"
			a.Op = project.OpCreate
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Path < actions[j].Path
	})
	return actions, nil
}

// PrintHeadless writes a human readable report of res to w.
func PrintHeadless(w io.Writer, res *HeadlessResult) {
	fmt.Fprintln(w, res.Response)
	if len(res.Planned) > 0 {
		fmt.Fprintf(w, "\nPlanned: %s\n", strings.Join(res.Planned, ", "))
	}
	for _, c := range res.Commands {
		fmt.Fprintf(w, "$ %s\n", c)
	}
	fmt.Fprintln(w)
	for _, a := range res.Actions {
		fmt.Fprintf(w, "%-6s %s (%s)\n", a.Op, a.Path, a.Message)
	}
	paths := make([]string, 0, len(res.Actions))
	for _, a := range res.Actions {
		if a.Op != project.OpDelete {
			paths = append(paths, a.Path)
		}
	}
	if len(paths) > 0 {
		fmt.Fprintf(w, "\n%s\n", buildTree(paths))
	}
	for _, a := range res.Actions {
		if strings.TrimSpace(a.Diff) != "" {
			fmt.Fprintf(w, "\n%s", a.Diff)
		}
	}
	fmt.Fprintf(w, "\nPreview: %s\n", res.PreviewPath)
}
