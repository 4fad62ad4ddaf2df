package project

import (
	"path"
	"strings"
)

var languageByExt = map[string]string{
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".js":   "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".json": "json",
	".md":   "markdown",
	".svg":  "xml",
}

// LanguageFor derives the editor language tag from the path's extension.
// Unknown or missing extensions map to "plaintext".
func LanguageFor(p string) string {
	if lang, ok := languageByExt[strings.ToLower(path.Ext(p))]; ok {
		return lang
	}
	return "plaintext"
}

// IsScript reports whether the file is concatenated into the preview script.
func IsScript(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".js", ".ts", ".tsx", ".jsx":
		return true
	}
	return false
}

// IsStylesheet reports whether the file is inlined as a stylesheet.
func IsStylesheet(p string) bool {
	return strings.EqualFold(path.Ext(p), ".css")
}
