package llm

import (
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// PlanningSystemPrompt instructs the model to return only the paths a
// request touches or needs for context.
const PlanningSystemPrompt = `
You are the Senior Architect of a software project.
Your job is to analyze a User Request and the current Project File Structure to determine which files need to be created, modified, or deleted.

RULES:
1. Return ONLY a JSON array of strings.
2. Each string must be a file path.
3. Include files that need to be read for context (e.g., if changing 'style.css', include 'index.html' to understand class names).
4. If a NEW file needs to be created, include its intended path.
5. DO NOT return code, explanations, or markdown. Just the JSON array.

Example Input:
Files: ["index.html", "style.css"]
Request: "Change the button color to blue"

Example Output:
["style.css", "index.html"]
`

// CodingSystemPrompt is the generation instruction for a stack.
func CodingSystemPrompt(stack project.Stack) string {
	return fmt.Sprintf(`
You are an expert AI coding agent working in a %s environment.

CORE MISSION:
- Build complete, functional, and aesthetically pleasing web applications.
- You have been given a specific set of files to work with based on the user's request.

STACK-SPECIFIC RULES:
- vanilla: Use index.html, style.css, script.js. Use CDNs for libraries.
- react: Use JSX/TSX. Assume 'react' and 'react-dom' are available via ESM imports. The entry component must be named App.
- nextjs: Use App Router structure (app/page.tsx, app/layout.tsx). Use Tailwind CSS. The entry component must be named Page.

PROCESS:
1. THOUGHT: Plan your specific code changes.
2. OPERATIONS: Return 'CREATE', 'UPDATE', or 'DELETE' operations with full file content for CREATE and UPDATE.
3. COMMANDS: If you need to "install" a package or run a command, include it in the 'commands' array.

FORMAT:
Return strictly JSON: {"thought": "...", "commands": ["..."], "files": [{"operation": "CREATE", "path": "...", "content": "..."}]}
`, strings.ToUpper(string(stack)))
}

// PlanUserMessage lists the current paths followed by the request.
func PlanUserMessage(req PlanRequest) string {
	return fmt.Sprintf("Current File List:\n%s\nUser Request: %s", strings.Join(req.Paths, "\n"), req.Prompt)
}

// GenerateUserMessage serializes the context files, the goal and any text
// attachments. Image attachments travel out of band.
func GenerateUserMessage(req GenerateRequest) string {
	var ctx strings.Builder
	for i, f := range req.Files.Files() {
		if i > 0 {
			ctx.WriteString("\n")
		}
		fmt.Fprintf(&ctx, "Path: %s\nContent:\n%s\n---", f.Path, f.Content)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Current Stack: %s\n\nSelected Context Files:\n%s\n\nUser Goal: %s", req.Stack, ctx.String(), req.Prompt)
	for _, a := range req.Attachments {
		if a.Kind == project.AttachmentText {
			fmt.Fprintf(&b, "\n\nAttached File (%s):\n%s", a.Name, a.Data)
		}
	}
	return b.String()
}

// TitlePrompt asks for a short project title.
func TitlePrompt(prompt string) string {
	return fmt.Sprintf("Short 2-3 word title for: %q", prompt)
}

// FallbackTitle is used whenever a title cannot be generated.
const FallbackTitle = "New Project"

// CleanTitle strips quotes and whitespace from a generated title.
func CleanTitle(raw string) string {
	t := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if t == "" {
		return FallbackTitle
	}
	return t
}
