package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// ErrUnknownModel is returned when no backend matches a model id.
var ErrUnknownModel = errors.New("unknown model")

var agentProviders = map[string]bool{
	"openai":    true,
	"gemini":    true,
	"google":    true,
	"ollama":    true,
	"anthropic": true,
	"claude":    true,
}

// Registry resolves model ids to backends and caches them.
//
//	gemini-*             managed Gemini backend
//	<custom model id>    OpenAI-compatible endpoint
//	<provider>:<model>   go-agent provider (openai, ollama, anthropic, gemini)
//	utcp:<name>          UTCP tool provider
type Registry struct {
	GeminiKey string
	PlanModel string
	UTCPPath  string

	mu       sync.Mutex
	custom   map[string]project.CustomModel
	backends map[string]Backend
	dialer   func(ctx context.Context, id string, custom project.CustomModel, isCustom bool) (Backend, error)
}

func NewRegistry(geminiKey, planModel, utcpPath string) *Registry {
	r := &Registry{
		GeminiKey: geminiKey,
		PlanModel: planModel,
		UTCPPath:  utcpPath,
		custom:    make(map[string]project.CustomModel),
		backends:  make(map[string]Backend),
	}
	r.dialer = r.dial
	return r
}

// SetCustomModels replaces the registered custom endpoints and drops any
// cached backend built from an old definition.
func (r *Registry) SetCustomModels(models []project.CustomModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.custom {
		delete(r.backends, id)
	}
	r.custom = make(map[string]project.CustomModel, len(models))
	for _, m := range models {
		r.custom[m.ID] = m
		delete(r.backends, m.ID)
	}
}

// Register installs a prebuilt backend under id.
func (r *Registry) Register(id string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[id] = b
}

// IDs lists the selectable model ids.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, m := range ManagedModels {
		ids = append(ids, m.ID)
	}
	custom := make([]string, 0, len(r.custom))
	for id := range r.custom {
		custom = append(custom, id)
	}
	sort.Strings(custom)
	return append(ids, custom...)
}

// Resolve returns the backend for id, dialing it on first use.
func (r *Registry) Resolve(ctx context.Context, id string) (Backend, error) {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	if b, ok := r.backends[id]; ok {
		r.mu.Unlock()
		return b, nil
	}
	custom, isCustom := r.custom[id]
	r.mu.Unlock()

	b, err := r.dialer(ctx, id, custom, isCustom)
	if err != nil {
		return nil, err
	}

	// Another caller may have dialed the same id meanwhile; keep theirs.
	r.mu.Lock()
	winner, ok := r.backends[id]
	if !ok {
		r.backends[id] = b
		winner = b
	}
	r.mu.Unlock()
	if winner != b {
		if c, ok := b.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return winner, nil
}

func (r *Registry) dial(ctx context.Context, id string, custom project.CustomModel, isCustom bool) (Backend, error) {
	if isCustom {
		return NewCompatBackend(custom), nil
	}
	if name, ok := strings.CutPrefix(id, "utcp:"); ok {
		client, err := DialUTCP(ctx, r.UTCPPath)
		if err != nil {
			return nil, err
		}
		return NewToolBackend(name, client), nil
	}
	if provider, model, ok := strings.Cut(id, ":"); ok && agentProviders[strings.ToLower(provider)] {
		return DialAgentBackend(ctx, strings.ToLower(provider), model)
	}
	if strings.HasPrefix(id, "gemini-") {
		return NewManagedBackend(ctx, r.GeminiKey, id, r.PlanModel)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, id)
}

// Close releases every cached backend that holds a connection.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for id, b := range r.backends {
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
			}
		}
	}
	return errors.Join(errs...)
}
