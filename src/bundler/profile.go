package bundler

import "github.com/Protocol-Lattice/lattice-studio/src/project"

// Profile declares how a stack is bundled. EntrySymbol names the component
// the mount script renders; an empty symbol means no mounting.
type Profile struct {
	Stack        project.Stack
	EntrySymbol  string
	NeedsRuntime bool
}

var profiles = map[project.Stack]Profile{
	project.StackVanilla: {Stack: project.StackVanilla},
	project.StackReact:   {Stack: project.StackReact, EntrySymbol: "App", NeedsRuntime: true},
	project.StackNextJS:  {Stack: project.StackNextJS, EntrySymbol: "Page", NeedsRuntime: true},
}

// ProfileFor returns the bundling profile of a stack. Unknown stacks bundle
// like vanilla.
func ProfileFor(s project.Stack) Profile {
	if p, ok := profiles[s]; ok {
		return p
	}
	return profiles[project.StackVanilla]
}
