package bundler

import (
	"strings"
	"testing"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

func scenarioFiles() project.FileSet {
	return project.NewFileSet(
		project.NewFile("index.html", "<div id=app></div>"),
		project.NewFile("style.css", ""),
		project.NewFile("script.js", "console.log('hi')"),
	)
}

func TestBundleVanilla(t *testing.T) {
	doc := Bundle(scenarioFiles(), project.StackVanilla)

	if n := strings.Count(doc, "<style>"); n != 1 {
		t.Fatalf("expected one style tag, got %d", n)
	}
	var appScripts int
	for _, chunk := range strings.Split(doc, "<script>")[1:] {
		if strings.Contains(chunk[:strings.Index(chunk, "</script>")], "console.log('hi')") {
			appScripts++
		}
	}
	if appScripts != 1 {
		t.Fatalf("expected exactly one script containing the app code, got %d", appScripts)
	}
	if !strings.Contains(doc, "// --- FILE: script.js ---") {
		t.Fatalf("missing path marker")
	}
	if !strings.Contains(doc, "type: 'CONSOLE_LOG'") || !strings.Contains(doc, "window.onerror") {
		t.Fatalf("missing console bridge")
	}
	if strings.Contains(doc, "babel") || strings.Contains(doc, "importmap") {
		t.Fatalf("vanilla bundle should not load the component runtime")
	}
	if !strings.Contains(doc, tailwindCDN) {
		t.Fatalf("missing stylesheet CDN")
	}
	if strings.Contains(doc, `<div id="root"></div>`) {
		t.Fatalf("root container injected although markup declares id=app")
	}
}

func TestBundleMissingEntry(t *testing.T) {
	files := project.NewFileSet(project.NewFile("App.tsx", "export default function App() {}"))
	if got := Bundle(files, project.StackReact); got != MissingEntryDocument {
		t.Fatalf("expected diagnostic document, got %q", got)
	}
}

func TestBundleIsIdempotent(t *testing.T) {
	for _, s := range project.Stacks {
		files := project.Template(s)
		if Bundle(files, s) != Bundle(files, s) {
			t.Fatalf("%s: bundle output differs between calls", s)
		}
	}
}

func TestBundleStripsInlinedReferences(t *testing.T) {
	files := project.Template(project.StackVanilla)
	doc := Bundle(files, project.StackVanilla)
	if strings.Contains(doc, `src="script.js"`) || strings.Contains(doc, `href="style.css"`) {
		t.Fatalf("local references should be replaced by inlined content")
	}
	if !strings.Contains(doc, "<title>Vanilla App</title>") {
		t.Fatalf("entry head content lost")
	}
	if !strings.Contains(doc, "Hello Vanilla!") {
		t.Fatalf("entry body markup lost")
	}
	if strings.Count(doc, "<html") != 1 || strings.Count(doc, "<body") != 1 {
		t.Fatalf("entry document was nested instead of merged")
	}
}

func TestBundleReact(t *testing.T) {
	files := project.NewFileSet(
		project.NewFile("index.html", "<h1>Shell</h1>"),
		project.NewFile("components/Button.tsx", "import React, { useState } from 'react';\nexport const Button = () => <button>ok</button>;"),
		project.NewFile("App.tsx", "import React, { useEffect } from 'react';\nimport { Button } from './components/Button';\nimport { Star } from 'lucide-react';\n\nexport default function App() {\n  return <Button />;\n}"),
		project.NewFile("main.css", "h1 { color: red; }"),
	)
	doc := Bundle(files, project.StackReact)

	for _, want := range []string{
		babelCDN,
		`"react-dom/client": "https://esm.sh/react-dom@18/client"`,
		`<script type="text/babel" data-type="module"`,
		"import React, { useState, useEffect } from 'react';",
		"import { createRoot } from 'react-dom/client';",
		"import { Star } from 'lucide-react';",
		"// --- FILE: components/Button.tsx ---\nconst Button",
		"function App()",
		"typeof App !== 'undefined'",
		"React.createElement(App)",
		`<div id="root"></div>`,
		"h1 { color: red; }",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("react bundle missing %q", want)
		}
	}
	if strings.Contains(doc, "./components/Button") {
		t.Errorf("relative import should be dropped")
	}
	if strings.Contains(doc, "export default") {
		t.Errorf("export keywords should be stripped")
	}
	if strings.Contains(doc, "typeof Page") {
		t.Errorf("react bundle should only mount its declared entry")
	}
}

func TestBundleNextUsesPageEntry(t *testing.T) {
	doc := Bundle(project.Template(project.StackNextJS), project.StackNextJS)
	if !strings.Contains(doc, "typeof Page !== 'undefined'") {
		t.Fatalf("nextjs bundle should mount Page")
	}
	if strings.Contains(doc, "typeof App") {
		t.Fatalf("nextjs bundle should not look up App")
	}
	if strings.Count(doc, tailwindCDN) != 1 {
		t.Fatalf("stylesheet CDN should be injected once, got %d", strings.Count(doc, tailwindCDN))
	}
}

func TestHasRootContainer(t *testing.T) {
	cases := map[string]bool{
		`<div id="root"></div>`:    true,
		`<div id='app'></div>`:     true,
		`<div id=app></div>`:       true,
		`<main id = "root">`:       true,
		`<div id="application">`:   false,
		`<div class="root"></div>`: false,
	}
	for in, want := range cases {
		if got := hasRootContainer(in); got != want {
			t.Errorf("hasRootContainer(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestImportSetMerges(t *testing.T) {
	s := newImportSet()
	out := s.hoist("import * as THREE from 'three';\nimport 'highlight.css';\nimport type { Props } from './types';\nimport { a as b,\n  c } from 'lib';\nconst x = 1;")
	if strings.Contains(out, "import") {
		t.Fatalf("imports not removed: %q", out)
	}
	got := s.render()
	for _, want := range []string{"import * as THREE from 'three';", "import 'highlight.css';", "import { a as b, c } from 'lib';"} {
		if !strings.Contains(got, want) {
			t.Errorf("render missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "./types") {
		t.Errorf("relative import kept")
	}
}
