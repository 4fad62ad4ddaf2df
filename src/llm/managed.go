package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// DefaultPlanModel is always used for the planning and title stages of the
// managed backend.
const DefaultPlanModel = "gemini-3-flash-preview"

// ManagedModels are the built-in Gemini models offered in the model picker.
var ManagedModels = []struct{ ID, Label, Description string }{
	{"gemini-3-flash-preview", "Gemini 3 Flash", "Fastest, great for quick edits and UI."},
	{"gemini-3-pro-preview", "Gemini 3 Pro", "High reasoning, best for complex logic."},
	{"gemini-2.5-flash-thinking-preview-01-21", "Gemini 2.5 Thinking", "Enhanced reasoning for difficult problems."},
}

type geminiCall struct {
	Model  string
	System string
	Schema *genai.Schema
	Parts  []genai.Part
}

type geminiCaller interface {
	call(ctx context.Context, c geminiCall) (string, error)
}

type genaiCaller struct {
	client *genai.Client
}

func (g genaiCaller) call(ctx context.Context, c geminiCall) (string, error) {
	m := g.client.GenerativeModel(c.Model)
	if c.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(c.System)}}
	}
	if c.Schema != nil {
		m.ResponseMIMEType = "application/json"
		m.ResponseSchema = c.Schema
	}
	resp, err := m.GenerateContent(ctx, c.Parts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoCandidates
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}

// ManagedBackend talks to Google Gemini with schema-constrained JSON output.
type ManagedBackend struct {
	model     string
	planModel string
	caller    geminiCaller
	client    *genai.Client
}

// NewManagedBackend dials Gemini with the given API key.
func NewManagedBackend(ctx context.Context, apiKey, model, planModel string) (*ManagedBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: API key is not configured; set GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	b := newManagedBackend(genaiCaller{client: client}, model, planModel)
	b.client = client
	return b, nil
}

func newManagedBackend(caller geminiCaller, model, planModel string) *ManagedBackend {
	if planModel == "" {
		planModel = DefaultPlanModel
	}
	if model == "" {
		model = DefaultPlanModel
	}
	return &ManagedBackend{model: model, planModel: planModel, caller: caller}
}

func (b *ManagedBackend) Name() string { return b.model }

// Close releases the underlying client.
func (b *ManagedBackend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

func planSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

func changeSetSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"thought":  {Type: genai.TypeString},
			"commands": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"files": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"operation": {Type: genai.TypeString, Enum: []string{"CREATE", "UPDATE", "DELETE"}},
						"path":      {Type: genai.TypeString},
						"content":   {Type: genai.TypeString},
					},
					Required: []string{"operation", "path"},
				},
			},
		},
		Required: []string{"thought", "files"},
	}
}

func (b *ManagedBackend) Plan(ctx context.Context, req PlanRequest) ([]string, error) {
	raw, err := b.caller.call(ctx, geminiCall{
		Model:  b.planModel,
		System: PlanningSystemPrompt,
		Schema: planSchema(),
		Parts:  []genai.Part{genai.Text(PlanUserMessage(req))},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini plan: %w", err)
	}
	return DecodePlan(raw)
}

func (b *ManagedBackend) Generate(ctx context.Context, req GenerateRequest) (project.ChangeSet, error) {
	parts := []genai.Part{genai.Text(GenerateUserMessage(req))}
	for _, a := range req.Attachments {
		if a.Kind != project.AttachmentImage {
			continue
		}
		data, err := a.Bytes()
		if err != nil {
			return project.ChangeSet{}, fmt.Errorf("attachment %s: %w", a.Name, err)
		}
		parts = append(parts, genai.Blob{MIMEType: a.MIMEType, Data: data})
	}
	raw, err := b.caller.call(ctx, geminiCall{
		Model:  b.model,
		System: CodingSystemPrompt(req.Stack),
		Schema: changeSetSchema(),
		Parts:  parts,
	})
	if err != nil {
		return project.ChangeSet{}, fmt.Errorf("gemini generate: %w", err)
	}
	return DecodeChangeSet(raw)
}

func (b *ManagedBackend) Title(ctx context.Context, prompt string) (string, error) {
	raw, err := b.caller.call(ctx, geminiCall{
		Model: b.planModel,
		Parts: []genai.Part{genai.Text(TitlePrompt(prompt))},
	})
	if err != nil {
		return FallbackTitle, err
	}
	return CleanTitle(raw), nil
}
