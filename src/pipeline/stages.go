package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Protocol-Lattice/lattice-studio/src/llm"
	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// Plan asks the backend which paths a request touches. It never fails: any
// backend error, parse error, or empty answer yields paths unchanged.
func Plan(ctx context.Context, b llm.Backend, prompt string, paths []string, log *slog.Logger) []string {
	planned, err := b.Plan(ctx, llm.PlanRequest{Prompt: prompt, Paths: paths})
	if err != nil {
		log.Warn("planner failed, using all files", "backend", b.Name(), "err", err)
		return paths
	}
	seen := make(map[string]bool, len(planned))
	out := make([]string, 0, len(planned))
	for _, p := range planned {
		p = project.CleanPath(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		log.Warn("planner returned no paths, using all files", "backend", b.Name())
		return paths
	}
	return out
}

// Generate runs the generation stage. Failures propagate to the caller.
func Generate(ctx context.Context, b llm.Backend, req llm.GenerateRequest) (project.ChangeSet, error) {
	cs, err := b.Generate(ctx, req)
	if err != nil {
		return project.ChangeSet{}, fmt.Errorf("generate: %w", err)
	}
	if err := cs.Validate(); err != nil {
		return project.ChangeSet{}, fmt.Errorf("generate: %w", err)
	}
	return cs, nil
}

// Reconcile applies a change-set to base. For every operation the file at
// its path is removed, then re-inserted with derived language unless the
// operation is a DELETE. Deleting a missing path is a no-op; updating a
// missing path creates it. Every operation is reported in the audit list.
func Reconcile(base project.FileSet, cs project.ChangeSet) (project.FileSet, []project.AuditEntry) {
	out := base
	audit := make([]project.AuditEntry, 0, len(cs.Operations))
	for _, op := range cs.Operations {
		p := project.CleanPath(op.Path)
		out = out.Remove(p)
		if op.Kind != project.OpDelete {
			content := ""
			if op.Content != nil {
				content = *op.Content
			}
			out = out.Upsert(project.NewFile(p, content))
		}
		audit = append(audit, project.AuditEntry{Path: p, Operation: op.Kind})
	}
	return out, audit
}
