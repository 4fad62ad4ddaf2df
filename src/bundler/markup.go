package bundler

import (
	"regexp"
	"strings"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

var (
	doctypeRe    = regexp.MustCompile(`(?is)<!doctype[^>]*>`)
	headRe       = regexp.MustCompile(`(?is)<head[^>]*>(.*?)</head\s*>`)
	bodyRe       = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body\s*>`)
	htmlTagRe    = regexp.MustCompile(`(?is)</?html[^>]*>`)
	scriptSrcRe  = regexp.MustCompile(`(?is)<script\b[^>]*\bsrc\s*=\s*["']?([^"'\s>]+)["']?[^>]*>\s*</script\s*>`)
	linkTagRe    = regexp.MustCompile(`(?is)<link\b[^>]*>`)
	linkHrefRe   = regexp.MustCompile(`(?is)\bhref\s*=\s*["']?([^"'\s>]+)`)
	stylesheetRe = regexp.MustCompile(`(?is)\brel\s*=\s*["']?stylesheet`)
	rootIDRe     = regexp.MustCompile(`\bid\s*=\s*(?:"(?:root|app)"|'(?:root|app)'|(?:root|app)(?:[\s/>]|$))`)
	charsetRe    = regexp.MustCompile(`(?is)<meta\b[^>]*charset[^>]*>`)
)

// entryMarkup splits index.html into head and body fragments. A fragment
// without a <body> element is treated as body markup.
func entryMarkup(src string) (head, body string) {
	src = doctypeRe.ReplaceAllString(src, "")
	if m := headRe.FindStringSubmatch(src); m != nil {
		head = m[1]
	}
	if m := bodyRe.FindStringSubmatch(src); m != nil {
		body = m[1]
	} else {
		body = headRe.ReplaceAllString(src, "")
		body = htmlTagRe.ReplaceAllString(body, "")
	}
	head = charsetRe.ReplaceAllString(head, "")
	return strings.TrimSpace(head), strings.TrimSpace(body)
}

// stripInlinedRefs removes script and stylesheet tags that point at files
// whose content is inlined into the bundle, plus duplicate Tailwind tags.
func stripInlinedRefs(markup string, files project.FileSet) string {
	markup = scriptSrcRe.ReplaceAllStringFunc(markup, func(tag string) string {
		src := scriptSrcRe.FindStringSubmatch(tag)[1]
		if src == tailwindCDN || files.Has(src) {
			return ""
		}
		return tag
	})
	return linkTagRe.ReplaceAllStringFunc(markup, func(tag string) string {
		if !stylesheetRe.MatchString(tag) {
			return tag
		}
		if m := linkHrefRe.FindStringSubmatch(tag); m != nil && files.Has(m[1]) {
			return ""
		}
		return tag
	})
}

// hasRootContainer reports whether markup already declares id root or app,
// quoted or not.
func hasRootContainer(markup string) bool {
	return rootIDRe.MatchString(markup)
}
