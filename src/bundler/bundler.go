// Package bundler assembles a project's files into one self-contained HTML
// document that the preview sandbox can execute.
package bundler

import (
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// Bundle builds the preview document for files. It is a pure function of its
// inputs: the same files and stack always produce the same text.
func Bundle(files project.FileSet, stack project.Stack) string {
	entry, ok := files.Get("index.html")
	if !ok {
		return MissingEntryDocument
	}
	profile := ProfileFor(stack)
	head, body := entryMarkup(entry.Content)
	head = stripInlinedRefs(head, files)
	body = stripInlinedRefs(body, files)

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&doc, "<script src=%q></script>\n", tailwindCDN)
	if profile.NeedsRuntime {
		fmt.Fprintf(&doc, "<script src=%q></script>\n", babelCDN)
		doc.WriteString(tsxPreset + "\n")
		doc.WriteString(importMap + "\n")
	}
	doc.WriteString(bridgeScript + "\n")
	if head != "" {
		doc.WriteString(head + "\n")
	}
	if css, ok := concatStyles(files); ok {
		doc.WriteString("<style>\n" + css + "\n</style>\n")
	}
	doc.WriteString("</head>\n<body>\n")
	if !hasRootContainer(body) {
		doc.WriteString("<div id=\"root\"></div>\n")
	}
	if body != "" {
		doc.WriteString(body + "\n")
	}
	if profile.NeedsRuntime {
		doc.WriteString(moduleScript(files, profile))
	} else if js := concatScripts(files, nil); js != "" {
		doc.WriteString("<script>\n" + js + "\n</script>\n")
	}
	doc.WriteString("</body>\n</html>\n")
	return doc.String()
}

// concatScripts joins every script file in FileSet order, each preceded by a
// path marker. transform, when set, rewrites each file's source first.
func concatScripts(files project.FileSet, transform func(string) string) string {
	var parts []string
	for _, f := range files.Files() {
		if !project.IsScript(f.Path) {
			continue
		}
		src := f.Content
		if transform != nil {
			src = transform(src)
		}
		parts = append(parts, fmt.Sprintf("// --- FILE: %s ---\n%s", f.Path, strings.TrimSpace(src)))
	}
	return strings.Join(parts, "\n\n")
}

// concatStyles joins every stylesheet; ok is false when the project has none.
func concatStyles(files project.FileSet) (css string, ok bool) {
	var parts []string
	for _, f := range files.Files() {
		if project.IsStylesheet(f.Path) {
			parts = append(parts, f.Content)
			ok = true
		}
	}
	return strings.Join(parts, "\n"), ok
}

// moduleScript builds the in-browser transpiled module for component stacks:
// merged imports, the concatenated sources and the mount call.
func moduleScript(files project.FileSet, profile Profile) string {
	imports := newImportSet()
	imports.add("React", "react")
	imports.add("{ createRoot }", "react-dom/client")
	body := concatScripts(files, func(src string) string {
		return stripExports(imports.hoist(src))
	})

	var b strings.Builder
	b.WriteString("<script type=\"text/babel\" data-type=\"module\" data-presets=\"react,tsx\">\n")
	b.WriteString(imports.render())
	if body != "" {
		b.WriteString("\n" + body + "\n")
	}
	if profile.EntrySymbol != "" {
		fmt.Fprintf(&b, mountScript, profile.EntrySymbol)
	}
	b.WriteString("</script>\n")
	return b.String()
}
