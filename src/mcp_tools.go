package src

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Protocol-Lattice/lattice-studio/src/bundler"
	"github.com/Protocol-Lattice/lattice-studio/src/llm"
	"github.com/Protocol-Lattice/lattice-studio/src/pipeline"
	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

const (
	toolPlanFiles    = "plan_files"
	toolGenerate     = "generate_changeset"
	toolApplyChanges = "apply_changeset"
	toolBundle       = "bundle_project"
	toolRunPrompt    = "run_prompt"
)

type MCPOptions struct {
	Models  pipeline.Models
	ModelID string
	Stack   project.Stack
	Logger  *slog.Logger
	Version string
}

type toolServer struct {
	models  pipeline.Models
	modelID string
	stack   project.Stack
	log     *slog.Logger
}

// NewMCPServer exposes the generation pipeline over MCP. Every tool works on
// a workspace directory, the same way the headless CLI does.
func NewMCPServer(opts MCPOptions) *server.MCPServer {
	t := newToolServer(opts)
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"Lattice Studio MCP Server",
		version,
		server.WithToolCapabilities(true),
	)
	t.register(s)
	return s
}

func newToolServer(opts MCPOptions) *toolServer {
	t := &toolServer{
		models:  opts.Models,
		modelID: opts.ModelID,
		stack:   opts.Stack,
		log:     opts.Logger,
	}
	if t.log == nil {
		t.log = slog.New(slog.DiscardHandler)
	}
	if t.stack == "" {
		t.stack = project.StackVanilla
	}
	return t
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func (t *toolServer) register(s *server.MCPServer) {
	workspace := stringProp("Project directory (defaults to current directory)")
	stack := stringProp("Stack: vanilla, react or nextjs")
	model := stringProp("Model id to use (defaults to the configured model)")
	prompt := stringProp("What to build or change, in plain language")

	s.AddTool(mcp.Tool{
		Name:        toolPlanFiles,
		Description: "List the project files a request would need to touch",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace": workspace,
				"prompt":    prompt,
				"stack":     stack,
				"model":     model,
			},
			Required: []string{"prompt"},
		},
	}, t.handlePlan)

	s.AddTool(mcp.Tool{
		Name:        toolGenerate,
		Description: "Generate a JSON change-set for a request without touching the workspace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace": workspace,
				"prompt":    prompt,
				"stack":     stack,
				"model":     model,
			},
			Required: []string{"prompt"},
		},
	}, t.handleGenerate)

	s.AddTool(mcp.Tool{
		Name:        toolApplyChanges,
		Description: "Apply a JSON change-set ({thought, commands, files}) to the workspace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace": workspace,
				"changeset": stringProp("Change-set JSON as returned by generate_changeset"),
			},
			Required: []string{"changeset"},
		},
	}, t.handleApply)

	s.AddTool(mcp.Tool{
		Name:        toolBundle,
		Description: "Bundle the workspace into a single self-contained HTML preview document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace": workspace,
				"stack":     stack,
				"write": map[string]interface{}{
					"type":        "boolean",
					"description": "Also write the document under the workspace state directory",
					"default":     false,
				},
			},
		},
	}, t.handleBundle)

	s.AddTool(mcp.Tool{
		Name:        toolRunPrompt,
		Description: "Plan, generate and apply one request against the workspace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace": workspace,
				"prompt":    prompt,
				"stack":     stack,
				"model":     model,
			},
			Required: []string{"prompt"},
		},
	}, t.handleRunPrompt)
}

func (t *toolServer) workspaceArgs(request mcp.CallToolRequest) (string, project.Stack, error) {
	root, err := filepath.Abs(request.GetString("workspace", "."))
	if err != nil {
		return "", "", err
	}
	stack, err := project.ParseStack(request.GetString("stack", string(t.stack)))
	if err != nil {
		return "", "", err
	}
	return root, stack, nil
}

// projectFiles loads root, falling back to the stack template when the
// directory holds no project files yet.
func projectFiles(root string, stack project.Stack) (project.FileSet, error) {
	files, err := loadWorkspace(root)
	if err != nil {
		return project.FileSet{}, err
	}
	if files.Len() == 0 {
		files = project.Template(stack)
	}
	return files, nil
}

func (t *toolServer) backend(ctx context.Context, request mcp.CallToolRequest) (llm.Backend, error) {
	if t.models == nil {
		return nil, errors.New("no model backends configured")
	}
	return t.models.Resolve(ctx, request.GetString("model", t.modelID))
}

func (t *toolServer) handlePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt := strings.TrimSpace(request.GetString("prompt", ""))
	if prompt == "" {
		return mcp.NewToolResultError("prompt cannot be empty"), nil
	}
	root, stack, err := t.workspaceArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := projectFiles(root, stack)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workspace: %v", err)), nil
	}
	b, err := t.backend(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	planned := pipeline.Plan(ctx, b, prompt, files.Paths(), t.log)
	return mcp.NewToolResultText(strings.Join(planned, "\n")), nil
}

func (t *toolServer) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt := strings.TrimSpace(request.GetString("prompt", ""))
	if prompt == "" {
		return mcp.NewToolResultError("prompt cannot be empty"), nil
	}
	root, stack, err := t.workspaceArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := projectFiles(root, stack)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workspace: %v", err)), nil
	}
	b, err := t.backend(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	planned := pipeline.Plan(ctx, b, prompt, files.Paths(), t.log)
	scope := files.Filter(planned)
	if scope.Len() == 0 {
		scope = files
	}
	cs, err := pipeline.Generate(ctx, b, llm.GenerateRequest{Prompt: prompt, Files: scope, Stack: stack})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if cs.Operations == nil {
		cs.Operations = []project.FileOperation{}
	}
	out, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (t *toolServer) handleApply(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cs, err := llm.DecodeChangeSet(request.GetString("changeset", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid change-set: %v", err)), nil
	}
	root, _, err := t.workspaceArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var actions []FileAction
	err = withCodegenLock(ctx, root, t.log, func() error {
		before, err := loadWorkspace(root)
		if err != nil {
			return err
		}
		after, audit := pipeline.Reconcile(before, cs)
		actions, err = writeTurn(root, pipeline.TurnResult{
			Changes: cs,
			Audit:   audit,
			Before:  before,
			After:   after,
		}, false, false)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Apply failed: %v", err)), nil
	}

	var b strings.Builder
	for _, a := range actions {
		fmt.Fprintf(&b, "%s %s (%s)\n", a.Op, a.Path, a.Message)
	}
	for _, c := range cs.Commands {
		fmt.Fprintf(&b, "$ %s\n", c)
	}
	if b.Len() == 0 {
		return mcp.NewToolResultText("No changes"), nil
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (t *toolServer) handleBundle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, stack, err := t.workspaceArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := projectFiles(root, stack)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load workspace: %v", err)), nil
	}
	doc := bundler.Bundle(files, stack)
	if request.GetBool("write", false) {
		dst := filepath.Join(root, stateDirName, PreviewFileName)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := os.WriteFile(dst, []byte(doc), 0o644); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to write preview: %v", err)), nil
		}
	}
	return mcp.NewToolResultText(doc), nil
}

func (t *toolServer) handleRunPrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, stack, err := t.workspaceArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := RunHeadless(ctx, HeadlessOptions{
		Workspace: root,
		Prompt:    request.GetString("prompt", ""),
		Stack:     stack,
		ModelID:   request.GetString("model", t.modelID),
		Models:    t.models,
		Logger:    t.log,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	PrintHeadless(&b, res)
	return mcp.NewToolResultText(b.String()), nil
}
