package project

import (
	"fmt"
	"strings"
)

// OpKind is the mutation a FileOperation performs.
type OpKind string

const (
	OpCreate OpKind = "CREATE"
	OpUpdate OpKind = "UPDATE"
	OpDelete OpKind = "DELETE"
)

// ParseOpKind accepts CREATE, UPDATE or DELETE in any case.
func ParseOpKind(s string) (OpKind, error) {
	switch k := OpKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case OpCreate, OpUpdate, OpDelete:
		return k, nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// FileOperation is one entry of a change-set. Content is nil only for DELETE.
type FileOperation struct {
	Kind    OpKind  `json:"operation"`
	Path    string  `json:"path"`
	Content *string `json:"content,omitempty"`
}

// Validate enforces the shape rules a decoded operation must meet.
func (op FileOperation) Validate() error {
	if CleanPath(op.Path) == "" {
		return fmt.Errorf("%s: %w", op.Kind, ErrEmptyPath)
	}
	switch op.Kind {
	case OpCreate, OpUpdate:
		if op.Content == nil {
			return fmt.Errorf("%s %s: missing content", op.Kind, op.Path)
		}
	case OpDelete:
	default:
		return fmt.Errorf("unknown operation %q for %s", op.Kind, op.Path)
	}
	return nil
}

// ChangeSet is the validated output of one generation turn.
type ChangeSet struct {
	Rationale  string          `json:"thought"`
	Commands   []string        `json:"commands,omitempty"`
	Operations []FileOperation `json:"files"`
}

// Validate checks every operation in order and reports the first failure.
func (cs ChangeSet) Validate() error {
	for i, op := range cs.Operations {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

// AuditEntry records one applied operation for the transcript.
type AuditEntry struct {
	Path      string `json:"path"`
	Operation OpKind `json:"operation"`
}

// Text is a small helper for building operations in code and tests.
func Text(s string) *string { return &s }
