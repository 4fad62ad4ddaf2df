package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	trailingArrayComma  = regexp.MustCompile(`,\s*\]`)
	trailingObjectComma = regexp.MustCompile(`,\s*\}`)
)

// ParseError is returned when no strategy recovers a usable JSON value from
// a model response, or when the recovered value has the wrong shape.
type ParseError struct {
	Reason  string
	Excerpt string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse model response: %s (raw: %q)", e.Reason, e.Excerpt)
}

func newParseError(reason, raw string) *ParseError {
	const limit = 80
	ex := strings.TrimSpace(raw)
	if len(ex) > limit {
		ex = ex[:limit] + "..."
	}
	return &ParseError{Reason: reason, Excerpt: ex}
}

type strategy func(raw string) (string, bool)

// strategies run in order; the first one that yields valid JSON wins.
var strategies = []strategy{
	directJSON,
	fencedJSON,
	func(raw string) (string, bool) { return balancedSpan(raw, '{', '}') },
	func(raw string) (string, bool) { return balancedSpan(raw, '[', ']') },
}

// ExtractJSON recovers the first JSON value embedded in a model response:
// the whole text, then a ```json fenced block, then the first balanced
// {...}, then the first balanced [...].
func ExtractJSON(raw string) (json.RawMessage, error) {
	for _, s := range strategies {
		if out, ok := s(raw); ok {
			return json.RawMessage(out), nil
		}
	}
	return nil, newParseError("no JSON value found", raw)
}

// validJSON accepts a candidate as-is or after stripping trailing commas.
func validJSON(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}
	if json.Valid([]byte(candidate)) {
		return candidate, true
	}
	repaired := trailingArrayComma.ReplaceAllString(candidate, "]")
	repaired = trailingObjectComma.ReplaceAllString(repaired, "}")
	if repaired != candidate && json.Valid([]byte(repaired)) {
		return repaired, true
	}
	return "", false
}

func directJSON(raw string) (string, bool) {
	return validJSON(raw)
}

// fencedJSON walks the markdown AST and returns the first fenced block whose
// info string names json.
func fencedJSON(raw string) (string, bool) {
	src := []byte(raw)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var found string
	var ok bool
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || ok {
			return ast.WalkContinue, nil
		}
		block, isFence := n.(*ast.FencedCodeBlock)
		if !isFence || block.Info == nil {
			return ast.WalkContinue, nil
		}
		info := strings.Fields(strings.ToLower(string(block.Info.Text(src))))
		if len(info) == 0 || info[0] != "json" {
			return ast.WalkContinue, nil
		}
		var body strings.Builder
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(src))
		}
		if out, valid := validJSON(body.String()); valid {
			found, ok = out, true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found, ok
}

// balancedSpan returns the first span opened by lo and closed by its
// matching hi that parses as JSON. String literals are honoured so that
// brackets inside them do not count.
func balancedSpan(raw string, lo, hi byte) (string, bool) {
	for start := strings.IndexByte(raw, lo); start >= 0; {
		if end := matchBracket(raw, start, lo, hi); end > start {
			if out, ok := validJSON(raw[start : end+1]); ok {
				return out, true
			}
		}
		next := strings.IndexByte(raw[start+1:], lo)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBracket(s string, start int, lo, hi byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case lo:
			depth++
		case hi:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
