package project

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// File is one source file of the generated project.
type File struct {
	Path     string `json:"name"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// NewFile builds a File with the language derived from its path.
func NewFile(p, content string) File {
	p = CleanPath(p)
	return File{Path: p, Language: LanguageFor(p), Content: content}
}

// CleanPath normalizes a project-relative path: forward slashes, no leading
// "./" or "/", no surrounding whitespace.
func CleanPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "." {
		return ""
	}
	return p
}

// FileSet is an ordered collection of files with unique paths. Every method
// returns a new FileSet and leaves the receiver untouched.
type FileSet struct {
	files []File
}

// NewFileSet builds a FileSet; a later duplicate path replaces the earlier
// one in place.
func NewFileSet(files ...File) FileSet {
	var fs FileSet
	for _, f := range files {
		fs = fs.Upsert(f)
	}
	return fs
}

func (fs FileSet) Len() int { return len(fs.files) }

// Files returns a copy of the files in order.
func (fs FileSet) Files() []File {
	out := make([]File, len(fs.files))
	copy(out, fs.files)
	return out
}

func (fs FileSet) Paths() []string {
	out := make([]string, len(fs.files))
	for i, f := range fs.files {
		out[i] = f.Path
	}
	return out
}

func (fs FileSet) index(p string) int {
	for i, f := range fs.files {
		if f.Path == p {
			return i
		}
	}
	return -1
}

func (fs FileSet) Has(p string) bool { return fs.index(CleanPath(p)) >= 0 }

func (fs FileSet) Get(p string) (File, bool) {
	i := fs.index(CleanPath(p))
	if i < 0 {
		return File{}, false
	}
	return fs.files[i], true
}

// Filter keeps only the listed paths, preserving FileSet order. Paths that
// are not present are ignored.
func (fs FileSet) Filter(paths []string) FileSet {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[CleanPath(p)] = true
	}
	var out []File
	for _, f := range fs.files {
		if want[f.Path] {
			out = append(out, f)
		}
	}
	return FileSet{files: out}
}

// Upsert replaces the file at f.Path in place or appends it.
func (fs FileSet) Upsert(f File) FileSet {
	f = NewFile(f.Path, f.Content)
	out := fs.Files()
	if i := fs.index(f.Path); i >= 0 {
		out[i] = f
		return FileSet{files: out}
	}
	return FileSet{files: append(out, f)}
}

// Remove drops the file at p. Missing paths are a no-op.
func (fs FileSet) Remove(p string) FileSet {
	p = CleanPath(p)
	out := make([]File, 0, len(fs.files))
	for _, f := range fs.files {
		if f.Path != p {
			out = append(out, f)
		}
	}
	return FileSet{files: out}
}

// Create adds a new file and rejects a path that is already taken.
func (fs FileSet) Create(p, content string) (FileSet, error) {
	p = CleanPath(p)
	if p == "" {
		return fs, ErrEmptyPath
	}
	if fs.Has(p) {
		return fs, fmt.Errorf("create %s: %w", p, ErrPathExists)
	}
	return FileSet{files: append(fs.Files(), NewFile(p, content))}, nil
}

// Rename moves a file, keeping its position and re-deriving its language.
func (fs FileSet) Rename(oldPath, newPath string) (FileSet, error) {
	oldPath, newPath = CleanPath(oldPath), CleanPath(newPath)
	if newPath == "" {
		return fs, ErrEmptyPath
	}
	i := fs.index(oldPath)
	if i < 0 {
		return fs, fmt.Errorf("rename %s: %w", oldPath, ErrNotFound)
	}
	if oldPath == newPath {
		return fs, nil
	}
	if fs.Has(newPath) {
		return fs, fmt.Errorf("rename %s -> %s: %w", oldPath, newPath, ErrPathExists)
	}
	out := fs.Files()
	out[i] = NewFile(newPath, out[i].Content)
	return FileSet{files: out}, nil
}

// Edit replaces the content of an existing file.
func (fs FileSet) Edit(p, content string) (FileSet, error) {
	p = CleanPath(p)
	i := fs.index(p)
	if i < 0 {
		return fs, fmt.Errorf("edit %s: %w", p, ErrNotFound)
	}
	out := fs.Files()
	out[i].Content = content
	return FileSet{files: out}, nil
}

// Delete removes an existing file.
func (fs FileSet) Delete(p string) (FileSet, error) {
	p = CleanPath(p)
	if !fs.Has(p) {
		return fs, fmt.Errorf("delete %s: %w", p, ErrNotFound)
	}
	return fs.Remove(p), nil
}

// Upload appends files whose paths are not yet taken. Existing paths win and
// the skipped paths are returned.
func (fs FileSet) Upload(files ...File) (FileSet, []string) {
	out := fs
	var skipped []string
	for _, f := range files {
		p := CleanPath(f.Path)
		if p == "" || out.Has(p) {
			skipped = append(skipped, f.Path)
			continue
		}
		out = FileSet{files: append(out.Files(), NewFile(p, f.Content))}
	}
	return out, skipped
}

// NewScratchFile adds an empty starter script named after the current time.
func (fs FileSet) NewScratchFile(now time.Time) (FileSet, string) {
	name := fmt.Sprintf("new_file_%d.js", now.UnixMilli())
	for n := 1; fs.Has(name); n++ {
		name = fmt.Sprintf("new_file_%d_%d.js", now.UnixMilli(), n)
	}
	out, _ := fs.Create(name, "// Start coding...")
	return out, name
}
