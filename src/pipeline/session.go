package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Protocol-Lattice/lattice-studio/src/llm"
	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

// ErrEmptyPrompt is returned by Send when there is nothing to send.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// Store persists projects. A nil Store keeps everything in memory.
type Store interface {
	SaveProject(meta project.Metadata, files project.FileSet, chat []project.ChatMessage) error
	LoadProject(id string) (project.Metadata, project.FileSet, []project.ChatMessage, error)
	Projects() ([]project.Metadata, error)
	CustomModels() ([]project.CustomModel, error)
	SaveCustomModels(models []project.CustomModel) error
}

// Models resolves model ids to backends.
type Models interface {
	Resolve(ctx context.Context, id string) (llm.Backend, error)
	SetCustomModels(models []project.CustomModel)
}

// CommandSink receives the commands of a change-set.
type CommandSink interface {
	Submit(commands []string)
}

type EventKind int

const (
	EventFiles EventKind = iota
	EventTranscript
	EventProject
	EventTitle
	EventBusy
)

// Event tells observers that part of the session state changed.
type Event struct {
	Kind    EventKind
	Version uint64
}

type Options struct {
	Store    Store
	Models   Models
	Terminal CommandSink
	Logger   *slog.Logger
	ModelID  string
	Stack    project.Stack
	Now      func() time.Time
	// Ping verifies a custom endpoint before it is saved.
	Ping func(ctx context.Context, m project.CustomModel) error
}

// TurnResult describes one completed generation turn.
type TurnResult struct {
	Planned []string
	Changes project.ChangeSet
	Audit   []project.AuditEntry
	Before  project.FileSet
	After   project.FileSet
	Version uint64
}

// Session is the single owner of the active project. Generation turns are
// serialized; direct edits and reconciliation go through the same lock and
// bump the version counter.
type Session struct {
	store    Store
	models   Models
	terminal CommandSink
	log      *slog.Logger
	now      func() time.Time
	ping     func(ctx context.Context, m project.CustomModel) error

	turn sync.Mutex
	bg   sync.WaitGroup

	mu        sync.RWMutex
	meta      project.Metadata
	files     project.FileSet
	chat      []project.ChatMessage
	version   uint64
	modelID   string
	busy      bool
	observers []func(Event)
}

func NewSession(opts Options) *Session {
	s := &Session{
		store:    opts.Store,
		models:   opts.Models,
		terminal: opts.Terminal,
		log:      opts.Logger,
		now:      opts.Now,
		ping:     opts.Ping,
		modelID:  opts.ModelID,
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.ping == nil {
		s.ping = func(ctx context.Context, m project.CustomModel) error {
			return llm.NewCompatBackend(m).Ping(ctx)
		}
	}
	stack := opts.Stack
	if stack == "" {
		stack = project.StackVanilla
	}
	s.reset(stack)
	return s
}

// OnChange registers an observer. Observers run on the goroutine that made
// the change and must not block.
func (s *Session) OnChange(fn func(Event)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Session) notify(kind EventKind) {
	s.mu.RLock()
	ev := Event{Kind: kind, Version: s.version}
	obs := append([]func(Event){}, s.observers...)
	s.mu.RUnlock()
	for _, fn := range obs {
		fn(ev)
	}
}

func (s *Session) Files() project.FileSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files
}

func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Session) Metadata() project.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

func (s *Session) Messages() []project.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]project.ChatMessage(nil), s.chat...)
}

func (s *Session) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelID
}

func (s *Session) SetModel(id string) {
	s.mu.Lock()
	s.modelID = strings.TrimSpace(id)
	s.mu.Unlock()
	s.notify(EventProject)
}

// Busy reports whether a generation turn is in flight.
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

func (s *Session) setBusy(b bool) {
	s.mu.Lock()
	s.busy = b
	s.mu.Unlock()
	s.notify(EventBusy)
}

// Wait blocks until background work such as title generation finishes.
func (s *Session) Wait() { s.bg.Wait() }

func (s *Session) appendMessage(m project.ChatMessage) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	s.mu.Lock()
	s.chat = append(s.chat, m)
	s.mu.Unlock()
	s.notify(EventTranscript)
}

func (s *Session) persist() {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	s.meta.LastModified = s.now()
	meta, files, chat := s.meta, s.files, append([]project.ChatMessage(nil), s.chat...)
	s.mu.Unlock()
	if err := s.store.SaveProject(meta, files, chat); err != nil {
		s.log.Warn("persist project failed", "project", meta.ID, "err", err)
	}
}

// Send runs one plan, generate, reconcile turn. Concurrent calls queue up
// and each one plans against the files left by the previous turn.
func (s *Session) Send(ctx context.Context, prompt string, attachments []project.Attachment) (TurnResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" && len(attachments) == 0 {
		return TurnResult{}, ErrEmptyPrompt
	}

	s.turn.Lock()
	defer s.turn.Unlock()
	s.setBusy(true)
	defer s.setBusy(false)

	s.appendMessage(project.ChatMessage{Role: project.RoleUser, Content: prompt, Attachments: attachments})

	res, err := s.runTurn(ctx, prompt, attachments)
	if err != nil {
		s.log.Error("turn failed", "model", s.Model(), "err", err)
		s.appendMessage(project.ChatMessage{Role: project.RoleAssistant, Content: "Error: " + err.Error()})
		s.persist()
		return TurnResult{}, err
	}
	s.persist()
	return res, nil
}

func (s *Session) runTurn(ctx context.Context, prompt string, attachments []project.Attachment) (TurnResult, error) {
	if s.models == nil {
		return TurnResult{}, errors.New("no model backends configured")
	}
	backend, err := s.models.Resolve(ctx, s.Model())
	if err != nil {
		return TurnResult{}, err
	}

	if s.Metadata().Title == project.UntitledProject {
		s.generateTitle(backend, prompt)
	}

	s.mu.RLock()
	snapshot, stack := s.files, s.meta.Stack
	s.mu.RUnlock()

	planned := Plan(ctx, backend, prompt, snapshot.Paths(), s.log)
	scope := snapshot.Filter(planned)
	if scope.Len() == 0 {
		scope = snapshot
	}
	s.log.Info("planned turn", "model", backend.Name(), "planned", planned, "context", scope.Len())

	cs, err := Generate(ctx, backend, llm.GenerateRequest{
		Prompt:      prompt,
		Files:       scope,
		Stack:       stack,
		Attachments: attachments,
	})
	if err != nil {
		return TurnResult{}, err
	}

	if len(cs.Commands) > 0 && s.terminal != nil {
		s.terminal.Submit(cs.Commands)
	}

	s.mu.Lock()
	before := s.files
	after, audit := Reconcile(before, cs)
	s.files = after
	s.version++
	version := s.version
	s.mu.Unlock()
	s.notify(EventFiles)

	thought := fmt.Sprintf("Model: %s\nPlanned changes for: [%s]. %s", backend.Name(), strings.Join(planned, ", "), cs.Rationale)
	s.appendMessage(project.ChatMessage{
		Role:          project.RoleAssistant,
		Content:       "I've updated the project files.",
		Thought:       strings.TrimSpace(thought),
		ModifiedFiles: audit,
	})
	return TurnResult{
		Planned: planned,
		Changes: cs,
		Audit:   audit,
		Before:  before,
		After:   after,
		Version: version,
	}, nil
}

// generateTitle names an untitled project in the background. The title is
// only applied if the project is still the same one and still untitled.
func (s *Session) generateTitle(b llm.Backend, prompt string) {
	id := s.Metadata().ID
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		title, err := b.Title(ctx, prompt)
		if err != nil {
			s.log.Debug("title generation failed", "err", err)
			title = llm.FallbackTitle
		}
		title = llm.CleanTitle(title)
		s.mu.Lock()
		if s.meta.ID != id || s.meta.Title != project.UntitledProject {
			s.mu.Unlock()
			return
		}
		s.meta.Title = title
		s.mu.Unlock()
		s.persist()
		s.notify(EventTitle)
	}()
}
