package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/Protocol-Lattice/lattice-studio/src/llm"
	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

type fakeBackend struct {
	name      string
	plan      func(llm.PlanRequest) ([]string, error)
	generate  func(llm.GenerateRequest) (project.ChangeSet, error)
	title     string
	planCalls []llm.PlanRequest
	genCalls  []llm.GenerateRequest
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Plan(_ context.Context, req llm.PlanRequest) ([]string, error) {
	f.planCalls = append(f.planCalls, req)
	if f.plan == nil {
		return req.Paths, nil
	}
	return f.plan(req)
}

func (f *fakeBackend) Generate(_ context.Context, req llm.GenerateRequest) (project.ChangeSet, error) {
	f.genCalls = append(f.genCalls, req)
	if f.generate == nil {
		return project.ChangeSet{}, nil
	}
	return f.generate(req)
}

func (f *fakeBackend) Title(context.Context, string) (string, error) {
	if f.title == "" {
		return "", errors.New("no title")
	}
	return f.title, nil
}

var discard = slog.New(slog.DiscardHandler)

func TestPlanFailsOpen(t *testing.T) {
	paths := []string{"index.html", "style.css"}
	cases := map[string]func(llm.PlanRequest) ([]string, error){
		"error": func(llm.PlanRequest) ([]string, error) { return nil, &llm.ParseError{Reason: "bad"} },
		"empty": func(llm.PlanRequest) ([]string, error) { return nil, nil },
		"blank": func(llm.PlanRequest) ([]string, error) { return []string{" ", ""}, nil },
	}
	for name, fn := range cases {
		got := Plan(context.Background(), &fakeBackend{plan: fn}, "p", paths, discard)
		if !reflect.DeepEqual(got, paths) {
			t.Errorf("%s: Plan = %v, want all paths", name, got)
		}
	}
}

func TestPlanDeduplicates(t *testing.T) {
	b := &fakeBackend{plan: func(llm.PlanRequest) ([]string, error) {
		return []string{"style.css", "./style.css", "about.html"}, nil
	}}
	got := Plan(context.Background(), b, "p", []string{"index.html"}, discard)
	if want := []string{"style.css", "about.html"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Plan = %v, want %v", got, want)
	}
}

func TestGenerateFailsClosed(t *testing.T) {
	b := &fakeBackend{generate: func(llm.GenerateRequest) (project.ChangeSet, error) {
		return project.ChangeSet{}, errors.New("503 overloaded")
	}}
	if _, err := Generate(context.Background(), b, llm.GenerateRequest{}); err == nil {
		t.Fatalf("expected error")
	}
	b.generate = func(llm.GenerateRequest) (project.ChangeSet, error) {
		return project.ChangeSet{Operations: []project.FileOperation{{Kind: project.OpCreate, Path: "a.js"}}}, nil
	}
	if _, err := Generate(context.Background(), b, llm.GenerateRequest{}); err == nil {
		t.Fatalf("expected validation error for CREATE without content")
	}
}

func TestReconcile(t *testing.T) {
	base := project.NewFileSet(
		project.NewFile("index.html", "<h1>Home</h1>"),
		project.NewFile("style.css", "body{}"),
		project.NewFile("script.js", "1"),
	)
	cs := project.ChangeSet{Operations: []project.FileOperation{
		{Kind: project.OpUpdate, Path: "style.css", Content: project.Text("body{color:red}")},
		{Kind: project.OpCreate, Path: "about.html", Content: project.Text("<h1>About</h1>")},
		{Kind: project.OpDelete, Path: "script.js"},
		{Kind: project.OpDelete, Path: "missing.js"},
		{Kind: project.OpUpdate, Path: "notes.md", Content: project.Text("# hi")},
	}}

	got, audit := Reconcile(base, cs)

	if want := []string{"index.html", "style.css", "about.html", "notes.md"}; !reflect.DeepEqual(got.Paths(), want) {
		t.Fatalf("paths = %v, want %v", got.Paths(), want)
	}
	if f, _ := got.Get("style.css"); f.Content != "body{color:red}" {
		t.Fatalf("update not applied: %q", f.Content)
	}
	if f, _ := got.Get("notes.md"); f.Language != "markdown" {
		t.Fatalf("language not derived: %q", f.Language)
	}
	if len(audit) != 5 || audit[3] != (project.AuditEntry{Path: "missing.js", Operation: project.OpDelete}) {
		t.Fatalf("unexpected audit %+v", audit)
	}
	if base.Len() != 3 || !base.Has("script.js") {
		t.Fatalf("base FileSet mutated")
	}

	again, _ := Reconcile(base, cs)
	if !reflect.DeepEqual(again.Files(), got.Files()) {
		t.Fatalf("Reconcile is not deterministic")
	}
}

func TestReconcileLastOperationWins(t *testing.T) {
	cs := project.ChangeSet{Operations: []project.FileOperation{
		{Kind: project.OpCreate, Path: "a.js", Content: project.Text("1")},
		{Kind: project.OpUpdate, Path: "a.js", Content: project.Text("2")},
	}}
	got, _ := Reconcile(project.NewFileSet(), cs)
	if got.Len() != 1 {
		t.Fatalf("duplicate paths after reconcile: %v", got.Paths())
	}
	if f, _ := got.Get("a.js"); f.Content != "2" {
		t.Fatalf("expected last write to win, got %q", f.Content)
	}
}
