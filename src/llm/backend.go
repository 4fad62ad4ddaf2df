package llm

import (
	"context"
	"errors"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// ErrNoCandidates is returned when a provider answers without any content.
var ErrNoCandidates = errors.New("model returned no candidates")

// PlanRequest is the input of the planning stage.
type PlanRequest struct {
	Prompt string
	Paths  []string
}

// GenerateRequest is the input of the generation stage.
type GenerateRequest struct {
	Prompt      string
	Files       project.FileSet
	Stack       project.Stack
	Attachments []project.Attachment
}

// Backend is the single capability every model provider implements.
type Backend interface {
	Name() string
	Plan(ctx context.Context, req PlanRequest) ([]string, error)
	Generate(ctx context.Context, req GenerateRequest) (project.ChangeSet, error)
	Title(ctx context.Context, prompt string) (string, error)
}

// Pinger is implemented by backends that can test their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}
