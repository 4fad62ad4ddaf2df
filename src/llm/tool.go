package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// ToolCaller is the subset of the UTCP client the tool backend needs.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}

// Tool names called on the UTCP provider.
const (
	ToolPlan     = "codegen.plan"
	ToolGenerate = "codegen.generate"
	ToolTitle    = "codegen.title"
)

// ToolBackend delegates planning and generation to tools exposed by a UTCP
// provider.
type ToolBackend struct {
	name   string
	caller ToolCaller
}

func NewToolBackend(name string, caller ToolCaller) *ToolBackend {
	return &ToolBackend{name: name, caller: caller}
}

// DialUTCP builds a UTCP client from a providers file. An empty path falls
// back to ~/utcp/provider.json.
func DialUTCP(ctx context.Context, providersPath string) (utcp.UtcpClientInterface, error) {
	if providersPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		providersPath = filepath.Join(home, "utcp", "provider.json")
	}
	if _, err := os.Stat(providersPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("UTCP unavailable: providers file missing at %s", providersPath)
	}
	client, err := utcp.NewUTCPClient(ctx, &utcp.UtcpClientConfig{ProvidersFilePath: providersPath}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("UTCP unavailable: %w", err)
	}
	return client, nil
}

func (b *ToolBackend) Name() string { return b.name }

func (b *ToolBackend) call(ctx context.Context, tool string, args map[string]any) (string, error) {
	res, err := b.caller.CallTool(ctx, tool, args)
	if err != nil {
		return "", fmt.Errorf("utcp %s: %w", tool, err)
	}
	return stringifyToolResult(res)
}

func stringifyToolResult(res any) (string, error) {
	switch v := res.(type) {
	case nil:
		return "", ErrNoCandidates
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case map[string]any:
		if s, ok := v["result"].(string); ok {
			return s, nil
		}
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Sprint(res), nil
	}
	return string(data), nil
}

func (b *ToolBackend) Plan(ctx context.Context, req PlanRequest) ([]string, error) {
	raw, err := b.call(ctx, ToolPlan, map[string]any{
		"system": PlanningSystemPrompt,
		"prompt": PlanUserMessage(req),
		"paths":  req.Paths,
	})
	if err != nil {
		return nil, err
	}
	return DecodePlan(raw)
}

func (b *ToolBackend) Generate(ctx context.Context, req GenerateRequest) (project.ChangeSet, error) {
	raw, err := b.call(ctx, ToolGenerate, map[string]any{
		"system": CodingSystemPrompt(req.Stack),
		"prompt": GenerateUserMessage(req),
		"stack":  string(req.Stack),
	})
	if err != nil {
		return project.ChangeSet{}, err
	}
	return DecodeChangeSet(raw)
}

func (b *ToolBackend) Title(ctx context.Context, prompt string) (string, error) {
	raw, err := b.call(ctx, ToolTitle, map[string]any{"prompt": TitlePrompt(prompt)})
	if err != nil {
		return FallbackTitle, err
	}
	return CleanTitle(raw), nil
}
