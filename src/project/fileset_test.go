package project

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLanguageFor(t *testing.T) {
	cases := map[string]string{
		"index.html":     "html",
		"src/App.TSX":    "typescript",
		"style.css":      "css",
		"main.js":        "javascript",
		"data.json":      "json",
		"README.md":      "markdown",
		"Makefile":       "plaintext",
		"notes.unknown":  "plaintext",
		"app/layout.tsx": "typescript",
	}
	for in, want := range cases {
		if got := LanguageFor(in); got != want {
			t.Errorf("LanguageFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"./index.html":    "index.html",
		"/src/app.js":     "src/app.js",
		" a\\b.css ":      "a/b.css",
		".":               "",
		"src/../main.tsx": "main.tsx",
	}
	for in, want := range cases {
		if got := CleanPath(in); got != want {
			t.Errorf("CleanPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileSetIsImmutable(t *testing.T) {
	base := NewFileSet(NewFile("a.js", "1"), NewFile("b.css", "2"))
	next, err := base.Edit("a.js", "changed")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if f, _ := base.Get("a.js"); f.Content != "1" {
		t.Fatalf("receiver mutated: %q", f.Content)
	}
	if f, _ := next.Get("a.js"); f.Content != "changed" {
		t.Fatalf("edit lost: %q", f.Content)
	}
}

func TestFileSetRenameRejectsCollision(t *testing.T) {
	fs := NewFileSet(NewFile("a.js", "1"), NewFile("b.js", "2"))
	_, err := fs.Rename("a.js", "b.js")
	if !errors.Is(err, ErrPathExists) {
		t.Fatalf("expected ErrPathExists, got %v", err)
	}
	if _, err := fs.Rename("missing.js", "c.js"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	renamed, err := fs.Rename("a.js", "a.tsx")
	if err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}
	if got := renamed.Paths(); !reflect.DeepEqual(got, []string{"a.tsx", "b.js"}) {
		t.Fatalf("unexpected order after rename: %v", got)
	}
	if f, _ := renamed.Get("a.tsx"); f.Language != "typescript" {
		t.Fatalf("language not re-derived: %q", f.Language)
	}
}

func TestFileSetCreateRejectsDuplicate(t *testing.T) {
	fs := NewFileSet(NewFile("index.html", ""))
	if _, err := fs.Create("./index.html", "x"); !errors.Is(err, ErrPathExists) {
		t.Fatalf("expected ErrPathExists, got %v", err)
	}
	if _, err := fs.Create("  ", "x"); !errors.Is(err, ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
}

func TestFileSetUploadSkipsExisting(t *testing.T) {
	fs := NewFileSet(NewFile("a.js", "keep"))
	out, skipped := fs.Upload(NewFile("a.js", "drop"), NewFile("b.js", "new"))
	if !reflect.DeepEqual(skipped, []string{"a.js"}) {
		t.Fatalf("unexpected skipped list: %v", skipped)
	}
	if f, _ := out.Get("a.js"); f.Content != "keep" {
		t.Fatalf("existing file overwritten: %q", f.Content)
	}
	if !out.Has("b.js") {
		t.Fatalf("new upload missing")
	}
}

func TestFileSetFilterKeepsOrder(t *testing.T) {
	fs := NewFileSet(NewFile("a", ""), NewFile("b", ""), NewFile("c", ""))
	got := fs.Filter([]string{"c", "a", "zzz"}).Paths()
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("Filter = %v", got)
	}
}

func TestNewScratchFile(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	fs, name := NewFileSet().NewScratchFile(now)
	if name != "new_file_1700000000000.js" {
		t.Fatalf("unexpected name %q", name)
	}
	f, ok := fs.Get(name)
	if !ok || f.Content != "// Start coding..." {
		t.Fatalf("scratch file not created: %+v", f)
	}
	_, second := fs.NewScratchFile(now)
	if second == name {
		t.Fatalf("scratch file name collided")
	}
}

func TestTemplatesHaveEntryPoint(t *testing.T) {
	for _, s := range Stacks {
		fs := Template(s)
		if !fs.Has("index.html") {
			t.Errorf("%s template has no index.html", s)
		}
	}
	react, _ := Template(StackReact).Get("App.tsx")
	if !strings.Contains(react.Content, "export default function App") {
		t.Fatalf("react template missing App entry")
	}
}

func TestParseStack(t *testing.T) {
	if s, err := ParseStack(" React "); err != nil || s != StackReact {
		t.Fatalf("ParseStack(React) = %q, %v", s, err)
	}
	if _, err := ParseStack("svelte"); !errors.Is(err, ErrUnknownStack) {
		t.Fatalf("expected ErrUnknownStack, got %v", err)
	}
}

func TestChangeSetValidate(t *testing.T) {
	ok := ChangeSet{Operations: []FileOperation{
		{Kind: OpCreate, Path: "a.js", Content: Text("x")},
		{Kind: OpDelete, Path: "b.js"},
	}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	missing := ChangeSet{Operations: []FileOperation{{Kind: OpUpdate, Path: "a.js"}}}
	if err := missing.Validate(); err == nil {
		t.Fatalf("expected error for UPDATE without content")
	}
	if _, err := ParseOpKind("rename"); err == nil {
		t.Fatalf("expected error for unknown operation")
	}
}

func TestAttachmentFromFile(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	a := AttachmentFromFile("/tmp/shot.png", png)
	if a.Kind != AttachmentImage || a.MIMEType != "image/png" || a.Name != "shot.png" {
		t.Fatalf("unexpected image attachment: %+v", a)
	}
	raw, err := a.Bytes()
	if err != nil || string(raw) != string(png) {
		t.Fatalf("round trip failed: %v", err)
	}
	txt := AttachmentFromFile("notes.txt", []byte("hello"))
	if txt.Kind != AttachmentText || txt.Data != "hello" || txt.MIMEType != "text/plain" {
		t.Fatalf("unexpected text attachment: %+v", txt)
	}
}
