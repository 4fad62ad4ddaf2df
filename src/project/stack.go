package project

import (
	"fmt"
	"strings"
)

// Stack identifies the technology profile a project is generated for.
type Stack string

const (
	StackVanilla Stack = "vanilla"
	StackReact   Stack = "react"
	StackNextJS  Stack = "nextjs"
)

// Stacks lists every supported stack in display order.
var Stacks = []Stack{StackVanilla, StackReact, StackNextJS}

// ParseStack accepts a stack name case-insensitively.
func ParseStack(s string) (Stack, error) {
	switch Stack(strings.ToLower(strings.TrimSpace(s))) {
	case StackVanilla:
		return StackVanilla, nil
	case StackReact:
		return StackReact, nil
	case StackNextJS, "next", "next.js":
		return StackNextJS, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStack, s)
}

// Label is the human readable name shown in pickers and prompts.
func (s Stack) Label() string {
	switch s {
	case StackReact:
		return "React (Vite + Tailwind)"
	case StackNextJS:
		return "Next.js (App Router)"
	default:
		return "HTML/CSS/JS"
	}
}

func (s Stack) String() string { return string(s) }
