package bundler

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	importFromRe    = regexp.MustCompile(`(?m)^[ \t]*import\s+([^;'"]*?)\s+from\s+['"]([^'"]+)['"][ \t]*;?[ \t]*$`)
	importBareRe    = regexp.MustCompile(`(?m)^[ \t]*import\s+['"]([^'"]+)['"][ \t]*;?[ \t]*$`)
	exportDefaultRe = regexp.MustCompile(`(?m)^([ \t]*)export\s+default\s+`)
	exportDeclRe    = regexp.MustCompile(`(?m)^([ \t]*)export\s+((?:async\s+)?function|const|let|var|class|interface|type|enum|abstract\s+class)\b`)
	exportListRe    = regexp.MustCompile(`(?m)^[ \t]*export\s*(?:type\s*)?\{[^}]*\}\s*(?:from\s*['"][^'"]*['"])?[ \t]*;?[ \t]*$`)
	exportStarRe    = regexp.MustCompile(`(?m)^[ \t]*export\s*\*\s*(?:as\s+\w+\s*)?from\s*['"][^'"]*['"][ \t]*;?[ \t]*$`)
)

// moduleImport accumulates every binding pulled from one module specifier.
type moduleImport struct {
	spec       string
	def        string
	namespace  string
	named      []string
	seen       map[string]bool
	sideEffect bool
}

// importSet merges import declarations across concatenated files so each
// binding is declared once.
type importSet struct {
	order   []string
	modules map[string]*moduleImport
}

func newImportSet() *importSet {
	return &importSet{modules: make(map[string]*moduleImport)}
}

func (s *importSet) module(spec string) *moduleImport {
	m, ok := s.modules[spec]
	if !ok {
		m = &moduleImport{spec: spec, seen: make(map[string]bool)}
		s.modules[spec] = m
		s.order = append(s.order, spec)
	}
	return m
}

func isLocalSpecifier(spec string) bool {
	return strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/")
}

// add records one import clause such as `React, { useState as us }`.
func (s *importSet) add(clause, spec string) {
	clause = strings.TrimSpace(clause)
	if strings.HasPrefix(clause, "type ") || strings.HasPrefix(clause, "type{") {
		return
	}
	m := s.module(spec)
	if open := strings.Index(clause, "{"); open >= 0 {
		end := strings.LastIndex(clause, "}")
		if end < open {
			end = len(clause)
		}
		for _, name := range strings.Split(clause[open+1:end], ",") {
			name = strings.Join(strings.Fields(name), " ")
			if name == "" || strings.HasPrefix(name, "type ") {
				continue
			}
			if !m.seen[name] {
				m.seen[name] = true
				m.named = append(m.named, name)
			}
		}
		clause = strings.TrimSpace(clause[:open])
	}
	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, "*"):
			if m.namespace == "" {
				m.namespace = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(part, "*")), "as"))
			}
		default:
			if m.def == "" {
				m.def = part
			}
		}
	}
}

func (s *importSet) render() string {
	var b strings.Builder
	for _, spec := range s.order {
		m := s.modules[spec]
		var parts []string
		if m.def != "" {
			parts = append(parts, m.def)
		}
		if m.namespace != "" {
			parts = append(parts, "* as "+m.namespace)
		}
		if len(m.named) > 0 {
			parts = append(parts, "{ "+strings.Join(m.named, ", ")+" }")
		}
		switch {
		case len(parts) > 0:
			fmt.Fprintf(&b, "import %s from '%s';\n", strings.Join(parts, ", "), spec)
		case m.sideEffect:
			fmt.Fprintf(&b, "import '%s';\n", spec)
		}
	}
	return b.String()
}

// hoist removes import declarations from src, records bare-specifier ones in
// the set and drops relative ones, whose files are already concatenated.
func (s *importSet) hoist(src string) string {
	src = importFromRe.ReplaceAllStringFunc(src, func(line string) string {
		m := importFromRe.FindStringSubmatch(line)
		if !isLocalSpecifier(m[2]) {
			s.add(m[1], m[2])
		}
		return ""
	})
	return importBareRe.ReplaceAllStringFunc(src, func(line string) string {
		m := importBareRe.FindStringSubmatch(line)
		if !isLocalSpecifier(m[1]) {
			s.module(m[1]).sideEffect = true
		}
		return ""
	})
}

// stripExports turns module exports into plain declarations so every file's
// top-level names share one module scope.
func stripExports(src string) string {
	src = exportListRe.ReplaceAllString(src, "")
	src = exportStarRe.ReplaceAllString(src, "")
	src = exportDefaultRe.ReplaceAllString(src, "$1")
	return exportDeclRe.ReplaceAllString(src, "$1$2")
}
