package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

func greeting(stack project.Stack) string {
	return fmt.Sprintf("Environment ready: %s. What should we build?", stack)
}

// reset installs a fresh project from the stack template.
func (s *Session) reset(stack project.Stack) {
	now := s.now()
	s.mu.Lock()
	s.meta = project.Metadata{
		ID:           uuid.NewString(),
		Title:        project.UntitledProject,
		Stack:        stack,
		LastModified: now,
	}
	s.files = project.Template(stack)
	s.chat = []project.ChatMessage{{
		ID:        uuid.NewString(),
		Role:      project.RoleAssistant,
		Content:   greeting(stack),
		CreatedAt: now,
	}}
	s.version++
	s.mu.Unlock()
}

// NewProject starts an untitled project from the stack's template.
func (s *Session) NewProject(stack project.Stack) project.Metadata {
	s.turn.Lock()
	defer s.turn.Unlock()
	s.reset(stack)
	s.persist()
	s.notify(EventProject)
	return s.Metadata()
}

// LoadProject makes a stored project the active one.
func (s *Session) LoadProject(id string) error {
	if s.store == nil {
		return fmt.Errorf("load %s: no store configured", id)
	}
	s.turn.Lock()
	defer s.turn.Unlock()
	meta, files, chat, err := s.store.LoadProject(id)
	if err != nil {
		return fmt.Errorf("load %s: %w", id, err)
	}
	if files.Len() == 0 {
		files = project.Template(meta.Stack)
	}
	s.mu.Lock()
	s.meta, s.files, s.chat = meta, files, chat
	s.version++
	s.mu.Unlock()
	s.notify(EventProject)
	return nil
}

// Import makes files the active project, keeping the current title and
// transcript. An empty FileSet falls back to the stack template.
func (s *Session) Import(stack project.Stack, files project.FileSet) {
	s.turn.Lock()
	defer s.turn.Unlock()
	if files.Len() == 0 {
		files = project.Template(stack)
	}
	s.mu.Lock()
	s.meta.Stack = stack
	s.files = files
	s.version++
	s.mu.Unlock()
	s.persist()
	s.notify(EventProject)
}

// Projects lists stored projects, most recent first.
func (s *Session) Projects() ([]project.Metadata, error) {
	if s.store == nil {
		return []project.Metadata{s.Metadata()}, nil
	}
	return s.store.Projects()
}

// SwitchStack replaces the whole FileSet with the new stack's template.
func (s *Session) SwitchStack(stack project.Stack) {
	s.turn.Lock()
	defer s.turn.Unlock()
	s.mu.Lock()
	s.meta.Stack = stack
	s.files = project.Template(stack)
	s.version++
	s.mu.Unlock()
	s.persist()
	s.notify(EventProject)
}

// Rename sets the project title.
func (s *Session) Rename(title string) {
	s.mu.Lock()
	s.meta.Title = title
	s.mu.Unlock()
	s.persist()
	s.notify(EventTitle)
}

// edit applies a direct user mutation under the ownership lock.
func (s *Session) edit(fn func(project.FileSet) (project.FileSet, error)) error {
	s.mu.Lock()
	next, err := fn(s.files)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.files = next
	s.version++
	s.mu.Unlock()
	s.persist()
	s.notify(EventFiles)
	return nil
}

func (s *Session) CreateFile(path, content string) error {
	return s.edit(func(fs project.FileSet) (project.FileSet, error) { return fs.Create(path, content) })
}

func (s *Session) RenameFile(oldPath, newPath string) error {
	return s.edit(func(fs project.FileSet) (project.FileSet, error) { return fs.Rename(oldPath, newPath) })
}

func (s *Session) EditFile(path, content string) error {
	return s.edit(func(fs project.FileSet) (project.FileSet, error) { return fs.Edit(path, content) })
}

func (s *Session) DeleteFile(path string) error {
	return s.edit(func(fs project.FileSet) (project.FileSet, error) { return fs.Delete(path) })
}

// UploadFiles adds files whose paths are free and reports the skipped ones.
func (s *Session) UploadFiles(files ...project.File) ([]string, error) {
	var skipped []string
	err := s.edit(func(fs project.FileSet) (project.FileSet, error) {
		var out project.FileSet
		out, skipped = fs.Upload(files...)
		return out, nil
	})
	return skipped, err
}

// NewScratchFile adds an empty starter script and returns its path.
func (s *Session) NewScratchFile() (string, error) {
	var name string
	err := s.edit(func(fs project.FileSet) (project.FileSet, error) {
		var out project.FileSet
		out, name = fs.NewScratchFile(s.now())
		return out, nil
	})
	return name, err
}

// CustomModels returns the stored custom endpoints.
func (s *Session) CustomModels() []project.CustomModel {
	if s.store == nil {
		return nil
	}
	ms, err := s.store.CustomModels()
	if err != nil {
		s.log.Warn("load custom models failed", "err", err)
	}
	return ms
}

// AddCustomModel tests the endpoint and, when it answers, stores it and makes
// it selectable.
func (s *Session) AddCustomModel(ctx context.Context, m project.CustomModel) error {
	if m.ID == "" {
		m.ID = "custom-" + uuid.NewString()[:8]
	}
	if m.Provider == "" {
		m.Provider = "custom"
	}
	pctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if err := s.ping(pctx, m); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	models := s.CustomModels()
	replaced := false
	for i := range models {
		if models[i].ID == m.ID {
			models[i], replaced = m, true
		}
	}
	if !replaced {
		models = append(models, m)
	}
	if s.store != nil {
		if err := s.store.SaveCustomModels(models); err != nil {
			return fmt.Errorf("save custom model: %w", err)
		}
	}
	if s.models != nil {
		s.models.SetCustomModels(models)
	}
	return nil
}
