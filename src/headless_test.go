package src

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Protocol-Lattice/lattice-studio/src/llm"
	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

type scriptedBackend struct {
	mu       sync.Mutex
	changes  project.ChangeSet
	genFiles []string
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Plan(_ context.Context, req llm.PlanRequest) ([]string, error) {
	return req.Paths, nil
}

func (b *scriptedBackend) Generate(_ context.Context, req llm.GenerateRequest) (project.ChangeSet, error) {
	b.mu.Lock()
	b.genFiles = req.Files.Paths()
	b.mu.Unlock()
	return b.changes, nil
}

func (b *scriptedBackend) Title(context.Context, string) (string, error) { return "Scripted", nil }

type staticModels struct{ backend llm.Backend }

func (s staticModels) Resolve(context.Context, string) (llm.Backend, error) { return s.backend, nil }
func (s staticModels) SetCustomModels([]project.CustomModel)               {}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRunHeadlessWritesChanges(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"index.html":          "<h1>Old</h1>",
		"old.js":              "console.log('old')",
		"node_modules/x/a.js": "ignored",
		"README.bin":          "skipped",
	})
	backend := &scriptedBackend{changes: project.ChangeSet{
		Rationale: "rewrite",
		Commands:  []string{"npm install confetti"},
		Operations: []project.FileOperation{
			{Kind: project.OpUpdate, Path: "index.html", Content: project.Text("<h1>New</h1>")},
			{Kind: project.OpCreate, Path: "js/app.js", Content: project.Text("console.log('app')")},
			{Kind: project.OpDelete, Path: "old.js"},
		},
	}}

	res, err := RunHeadless(context.Background(), HeadlessOptions{
		Workspace: root,
		Prompt:    "modernize",
		Models:    staticModels{backend},
		ModelID:   "scripted",
	})
	if err != nil {
		t.Fatalf("RunHeadless returned error: %v", err)
	}

	if got := strings.Join(backend.genFiles, ","); got != "index.html,old.js" {
		t.Fatalf("workspace not loaded as the project: %s", got)
	}
	if got := readFile(t, filepath.Join(root, "index.html")); got != "<h1>New</h1>" {
		t.Fatalf("index.html = %q", got)
	}
	if got := readFile(t, filepath.Join(root, "js", "app.js")); got != "console.log('app')" {
		t.Fatalf("js/app.js = %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, "old.js")); !os.IsNotExist(err) {
		t.Fatalf("old.js should be deleted, stat err = %v", err)
	}

	want := []struct {
		path, msg string
	}{{"index.html", "saved"}, {"js/app.js", "created"}, {"old.js", "deleted"}}
	if len(res.Actions) != len(want) {
		t.Fatalf("unexpected actions %+v", res.Actions)
	}
	for i, w := range want {
		if res.Actions[i].Path != w.path || res.Actions[i].Message != w.msg {
			t.Errorf("action %d = %+v, want %s %s", i, res.Actions[i], w.path, w.msg)
		}
	}
	if !strings.Contains(res.Actions[0].Diff, "-<h1>Old</h1>") || !strings.Contains(res.Actions[0].Diff, "+<h1>New</h1>") {
		t.Errorf("diff missing lines: %q", res.Actions[0].Diff)
	}
	if len(res.Commands) != 1 || res.Commands[0] != "npm install confetti" {
		t.Errorf("commands = %v", res.Commands)
	}
	if res.Response != "I've updated the project files." {
		t.Errorf("response = %q", res.Response)
	}

	preview := readFile(t, res.PreviewPath)
	if !strings.Contains(preview, "<h1>New</h1>") || !strings.Contains(preview, "console.log('app')") {
		t.Errorf("preview not bundled from the new files")
	}
	if _, err := os.Stat(filepath.Join(root, stateDirName, "codegen.lock")); !os.IsNotExist(err) {
		t.Errorf("lock not released")
	}

	var out strings.Builder
	PrintHeadless(&out, res)
	if !strings.Contains(out.String(), "$ npm install confetti") || !strings.Contains(out.String(), "Preview: ") {
		t.Errorf("report incomplete: %q", out.String())
	}
}

func TestRunHeadlessSeedsTemplate(t *testing.T) {
	root := t.TempDir()
	backend := &scriptedBackend{changes: project.ChangeSet{
		Operations: []project.FileOperation{
			{Kind: project.OpCreate, Path: "about.html", Content: project.Text("<p>about</p>")},
		},
	}}
	res, err := RunHeadless(context.Background(), HeadlessOptions{
		Workspace: root,
		Prompt:    "add an about page",
		Stack:     project.StackVanilla,
		Models:    staticModels{backend},
	})
	if err != nil {
		t.Fatalf("RunHeadless returned error: %v", err)
	}
	for _, name := range []string{"index.html", "style.css", "script.js", "about.html"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	for _, a := range res.Actions {
		if a.Op != project.OpCreate || a.Message != "created" {
			t.Errorf("seeded workspace action should be a create: %+v", a)
		}
	}
}

func TestRunHeadlessValidatesInput(t *testing.T) {
	if _, err := RunHeadless(context.Background(), HeadlessOptions{Workspace: t.TempDir(), Prompt: "x"}); err == nil {
		t.Fatalf("expected error without models")
	}
	if _, err := RunHeadless(context.Background(), HeadlessOptions{Workspace: t.TempDir(), Prompt: "  ", Models: staticModels{}}); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}

func TestResolveInRoot(t *testing.T) {
	root := t.TempDir()
	if p, err := resolveInRoot(root, "./a/b.js"); err != nil || p != filepath.Join(root, "a", "b.js") {
		t.Fatalf("resolveInRoot = %q, %v", p, err)
	}
	if _, err := resolveInRoot(root, "../escape.js"); err == nil {
		t.Fatalf("expected escape to be rejected")
	}
}
