package store

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// ExportName derives the archive file name from a project title.
func ExportName(title string) string {
	name := strings.ToLower(whitespaceRe.ReplaceAllString(strings.TrimSpace(title), "_"))
	if name == "" {
		name = "project"
	}
	return name + ".zip"
}

// ExportZip writes one archive entry per file, content verbatim.
func ExportZip(w io.Writer, files project.FileSet) error {
	zw := zip.NewWriter(w)
	for _, f := range files.Files() {
		entry, err := zw.Create(f.Path)
		if err != nil {
			return fmt.Errorf("zip %s: %w", f.Path, err)
		}
		if _, err := io.WriteString(entry, f.Content); err != nil {
			return fmt.Errorf("zip %s: %w", f.Path, err)
		}
	}
	return zw.Close()
}
