package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

const compatTemperature = 0.7

// CompatBackend talks to any OpenAI-compatible chat-completions endpoint.
// Responses are free text and recovered with ExtractJSON.
type CompatBackend struct {
	model  project.CustomModel
	client *openai.Client
}

// NewCompatBackend builds a client for a registered custom model.
func NewCompatBackend(m project.CustomModel) *CompatBackend {
	cfg := openai.DefaultConfig(m.APIKey)
	cfg.BaseURL = clientBaseURL(m.BaseURL)
	return &CompatBackend{model: m, client: openai.NewClientWithConfig(cfg)}
}

func (b *CompatBackend) Name() string {
	if b.model.Name != "" {
		return b.model.Name
	}
	return b.model.ModelID
}

func (b *CompatBackend) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model.ModelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: compatTemperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return "", fmt.Errorf("Custom API Error: %s", apiErr.Message)
		}
		return "", fmt.Errorf("Custom API Error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping sends a trivial request to verify the endpoint and credentials.
func (b *CompatBackend) Ping(ctx context.Context) error {
	_, err := b.complete(ctx, "You are a ping bot. Reply with 'pong'.", "Ping")
	return err
}

func (b *CompatBackend) Plan(ctx context.Context, req PlanRequest) ([]string, error) {
	raw, err := b.complete(ctx, PlanningSystemPrompt, PlanUserMessage(req))
	if err != nil {
		return nil, err
	}
	return DecodePlan(raw)
}

func (b *CompatBackend) Generate(ctx context.Context, req GenerateRequest) (project.ChangeSet, error) {
	raw, err := b.complete(ctx, CodingSystemPrompt(req.Stack), GenerateUserMessage(req))
	if err != nil {
		return project.ChangeSet{}, err
	}
	return DecodeChangeSet(raw)
}

func (b *CompatBackend) Title(ctx context.Context, prompt string) (string, error) {
	raw, err := b.complete(ctx, "Reply with the title only.", TitlePrompt(prompt))
	if err != nil {
		return FallbackTitle, err
	}
	return CleanTitle(strings.TrimSpace(raw)), nil
}
