package src

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/lattice-studio/src/pipeline"
	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// edit represents a single line change in a diff.
type edit struct {
	tag string // " " same, "+" add, "-" del
	txt string
}

type diffColors struct {
	reset, red, green, cyan, gray, bold string
}

var ansiColors = diffColors{
	reset: "\033[0m",
	red:   "\033[31m",
	green: "\033[32m",
	cyan:  "\033[36m",
	gray:  "\033[90m",
	bold:  "\033[1m",
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

// DiffPretty renders a git-style unified diff, colorized when color is set.
func DiffPretty(rel, oldText, newText string, color bool) string {
	if oldText == newText {
		return ""
	}
	var c diffColors
	if color {
		c = ansiColors
	}

	oldLines := splitLines(oldText)
	newLines := splitLines(newText)
	n, m := len(oldLines), len(newLines)

	// Build LCS table.
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if oldLines[i] == newLines[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var seq []edit
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case oldLines[i] == newLines[j]:
			seq = append(seq, edit{" ", oldLines[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			seq = append(seq, edit{"-", oldLines[i]})
			i++
		default:
			seq = append(seq, edit{"+", newLines[j]})
			j++
		}
	}
	for ; i < n; i++ {
		seq = append(seq, edit{"-", oldLines[i]})
	}
	for ; j < m; j++ {
		seq = append(seq, edit{"+", newLines[j]})
	}

	var out strings.Builder
	fmt.Fprintf(&out, "%sdiff --git a/%s b/%s%s\n", c.bold+c.cyan, rel, rel, c.reset)
	fmt.Fprintf(&out, "index %s..%s 100644\n", shortSHA(oldText), shortSHA(newText))
	oldName, newName := "a/"+rel, "b/"+rel
	if oldText == "" {
		oldName = "/dev/null"
	}
	if newText == "" {
		newName = "/dev/null"
	}
	fmt.Fprintf(&out, "%s--- %s%s\n", c.cyan, oldName, c.reset)
	fmt.Fprintf(&out, "%s+++ %s%s\n", c.cyan, newName, c.reset)

	const context = 3
	for _, h := range hunks(seq, context) {
		fmt.Fprintf(&out, "%s@@ -%d,%d +%d,%d @@%s\n", c.cyan, h.oldStart+1, h.oldCount, h.newStart+1, h.newCount, c.reset)
		for _, e := range seq[h.from:h.to] {
			switch e.tag {
			case "+":
				fmt.Fprintf(&out, "%s+%s%s\n", c.green, e.txt, c.reset)
			case "-":
				fmt.Fprintf(&out, "%s-%s%s\n", c.red, e.txt, c.reset)
			default:
				fmt.Fprintf(&out, "%s %s%s\n", c.gray, e.txt, c.reset)
			}
		}
	}
	return out.String()
}

type hunk struct {
	from, to           int
	oldStart, oldCount int
	newStart, newCount int
}

// hunks groups edits into ranges of changes padded by context lines; ranges
// closer than 2*context lines are merged.
func hunks(seq []edit, context int) []hunk {
	var out []hunk
	oldLine, newLine := 0, 0
	oldAt := make([]int, len(seq)+1)
	newAt := make([]int, len(seq)+1)
	for idx, e := range seq {
		oldAt[idx], newAt[idx] = oldLine, newLine
		if e.tag != "+" {
			oldLine++
		}
		if e.tag != "-" {
			newLine++
		}
	}
	oldAt[len(seq)], newAt[len(seq)] = oldLine, newLine

	for idx := 0; idx < len(seq); idx++ {
		if seq[idx].tag == " " {
			continue
		}
		from := max(0, idx-context)
		last := idx
		for k := idx + 1; k < len(seq) && k <= last+2*context; k++ {
			if seq[k].tag != " " {
				last = k
			}
		}
		to := min(len(seq), last+context+1)
		out = append(out, hunk{
			from: from, to: to,
			oldStart: oldAt[from], oldCount: oldAt[to] - oldAt[from],
			newStart: newAt[from], newCount: newAt[to] - newAt[from],
		})
		idx = to - 1
	}
	return out
}

// shortSHA returns a short SHA1-like index label for diff headers.
func shortSHA(s string) string {
	h := sha1.Sum([]byte(s))
	return fmt.Sprintf("%x", h[:3])
}

// turnDiffs renders one diff per audited path of a completed turn.
func turnDiffs(res pipeline.TurnResult, color bool) []FileAction {
	seen := map[string]bool{}
	var actions []FileAction
	for _, a := range res.Audit {
		if seen[a.Path] {
			continue
		}
		seen[a.Path] = true
		before, _ := res.Before.Get(a.Path)
		after, ok := res.After.Get(a.Path)
		action := FileAction{Path: a.Path, Op: a.Operation}
		if !ok {
			action.Op = project.OpDelete
		}
		action.Diff = DiffPretty(a.Path, before.Content, after.Content, color)
		actions = append(actions, action)
	}
	return actions
}
