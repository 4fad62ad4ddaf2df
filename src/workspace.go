package src

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// stateDirName holds the headless lock and the rendered preview inside a
// workspace. It is never loaded as project content.
const stateDirName = ".lattice-studio"

const maxWorkspaceFile = 1 << 20

func isIgnoredDir(name string) bool {
	ignored := map[string]struct{}{
		".git": {}, "node_modules": {}, "dist": {}, "build": {}, "out": {}, ".next": {},
		".idea": {}, ".vscode": {}, ".DS_Store": {}, stateDirName: {},
	}
	_, ok := ignored[name]
	return ok
}

func allowedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	allow := map[string]struct{}{
		".html": {}, ".htm": {}, ".css": {},
		".js": {}, ".mjs": {}, ".jsx": {}, ".ts": {}, ".tsx": {},
		".json": {}, ".md": {}, ".svg": {}, ".txt": {},
	}
	_, ok := allow[ext]
	return ok
}

// loadWorkspace reads every web source file under root into a FileSet,
// ordered by path.
func loadWorkspace(root string) (project.FileSet, error) {
	var files []project.File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && isIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !allowedFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxWorkspaceFile {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, project.NewFile(filepath.ToSlash(rel), string(data)))
		return nil
	})
	if err != nil {
		return project.FileSet{}, fmt.Errorf("load workspace: %w", err)
	}
	return project.NewFileSet(files...), nil
}

// resolveInRoot maps a project path onto disk, refusing paths that escape
// root.
func resolveInRoot(root, rel string) (string, error) {
	abs := filepath.Join(root, filepath.FromSlash(project.CleanPath(rel)))
	r, err := filepath.Rel(root, abs)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes workspace", rel)
	}
	return abs, nil
}

func buildTree(paths []string) string {
	type node struct {
		children map[string]*node
		file     bool
	}
	root := &node{children: map[string]*node{}}

	for _, p := range paths {
		parts := strings.Split(p, "/")
		cur := root
		for i, part := range parts {
			if _, ok := cur.children[part]; !ok {
				cur.children[part] = &node{children: map[string]*node{}}
			}
			cur = cur.children[part]
			if i == len(parts)-1 {
				cur.file = true
			}
		}
	}

	var lines []string
	var walk func(prefix string, n *node)
	walk = func(prefix string, n *node) {
		keys := make([]string, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := n.children[k]
			line := prefix + "└─ " + k
			if !child.file {
				line += "/"
			}
			lines = append(lines, line)
			if len(child.children) > 0 {
				walk(prefix+"  ", child)
			}
		}
	}
	walk("", root)
	return strings.Join(lines, "\n")
}
