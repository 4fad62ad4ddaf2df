package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

type wireOperation struct {
	Operation string  `json:"operation"`
	Path      string  `json:"path"`
	Content   *string `json:"content"`
}

type wireChangeSet struct {
	Thought  string          `json:"thought"`
	Commands []string        `json:"commands"`
	// Files is a pointer so a missing key can be told from an empty list.
	Files *[]wireOperation `json:"files"`
}

// DecodePlan recovers a list of paths from a free-form planning response.
func DecodePlan(raw string) ([]string, error) {
	data, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, newParseError("plan is not an array of strings", raw)
	}
	out := paths[:0]
	for _, p := range paths {
		if p = project.CleanPath(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// DecodeChangeSet recovers and validates a change-set from a free-form
// generation response. Any malformed operation fails the whole decode.
func DecodeChangeSet(raw string) (project.ChangeSet, error) {
	data, err := ExtractJSON(raw)
	if err != nil {
		return project.ChangeSet{}, err
	}
	return decodeChangeSetJSON(data, raw)
}

func decodeChangeSetJSON(data []byte, raw string) (project.ChangeSet, error) {
	var wire wireChangeSet
	if err := json.Unmarshal(data, &wire); err != nil {
		return project.ChangeSet{}, newParseError("response is not a change-set object", raw)
	}
	if wire.Files == nil {
		return project.ChangeSet{}, newParseError("response has no files list", raw)
	}
	cs := project.ChangeSet{Rationale: strings.TrimSpace(wire.Thought)}
	for _, c := range wire.Commands {
		if c = strings.TrimSpace(c); c != "" {
			cs.Commands = append(cs.Commands, c)
		}
	}
	for i, w := range *wire.Files {
		kind, err := project.ParseOpKind(w.Operation)
		if err != nil {
			return project.ChangeSet{}, fmt.Errorf("operation %d: %w", i, err)
		}
		op := project.FileOperation{Kind: kind, Path: project.CleanPath(w.Path), Content: w.Content}
		if kind == project.OpDelete {
			op.Content = nil
		}
		if err := op.Validate(); err != nil {
			return project.ChangeSet{}, fmt.Errorf("operation %d: %w", i, err)
		}
		cs.Operations = append(cs.Operations, op)
	}
	return cs, nil
}
