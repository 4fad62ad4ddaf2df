package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/go-agent/src/models"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// AgentBackend adapts any go-agent model provider. The provider has no system
// role, so instructions are prepended to the user message.
type AgentBackend struct {
	name  string
	agent models.Agent
}

// NewAgentBackend wraps an existing provider.
func NewAgentBackend(name string, ag models.Agent) *AgentBackend {
	return &AgentBackend{name: name, agent: ag}
}

// DialAgentBackend builds a provider from a "provider:model" pair.
func DialAgentBackend(ctx context.Context, provider, model string) (*AgentBackend, error) {
	ag, err := models.NewLLMProvider(ctx, provider, model, "Web project generator")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider, err)
	}
	return NewAgentBackend(provider+":"+model, ag), nil
}

func (b *AgentBackend) Name() string { return b.name }

func (b *AgentBackend) ask(ctx context.Context, system, user string, files []models.File) (string, error) {
	prompt := strings.TrimSpace(system) + "\n\n" + user
	var (
		out any
		err error
	)
	if len(files) > 0 {
		out, err = b.agent.GenerateWithFiles(ctx, prompt, files)
	} else {
		out, err = b.agent.Generate(ctx, prompt)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", b.name, err)
	}
	switch v := out.(type) {
	case nil:
		return "", fmt.Errorf("%s: %w", b.name, ErrNoCandidates)
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (b *AgentBackend) Plan(ctx context.Context, req PlanRequest) ([]string, error) {
	raw, err := b.ask(ctx, PlanningSystemPrompt, PlanUserMessage(req), nil)
	if err != nil {
		return nil, err
	}
	return DecodePlan(raw)
}

func (b *AgentBackend) Generate(ctx context.Context, req GenerateRequest) (project.ChangeSet, error) {
	var files []models.File
	for _, a := range req.Attachments {
		if a.Kind != project.AttachmentImage {
			continue
		}
		data, err := a.Bytes()
		if err != nil {
			return project.ChangeSet{}, fmt.Errorf("attachment %s: %w", a.Name, err)
		}
		files = append(files, models.File{Name: a.Name, MIME: a.MIMEType, Data: data})
	}
	raw, err := b.ask(ctx, CodingSystemPrompt(req.Stack), GenerateUserMessage(req), files)
	if err != nil {
		return project.ChangeSet{}, err
	}
	return DecodeChangeSet(raw)
}

func (b *AgentBackend) Title(ctx context.Context, prompt string) (string, error) {
	raw, err := b.ask(ctx, "Reply with the title only.", TitlePrompt(prompt), nil)
	if err != nil {
		return FallbackTitle, err
	}
	return CleanTitle(raw), nil
}
