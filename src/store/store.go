// Package store persists projects as JSON documents under a data directory,
// one file per key.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/Protocol-Lattice/lattice-studio/src/project"
)

const (
	keyPrefix       = "gencode_pro_"
	keyMeta         = keyPrefix + "meta"
	keyCustomModels = keyPrefix + "custom_models"
	keyTheme        = keyPrefix + "theme"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("not found")

var safeKey = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

func filesKey(id string) string { return keyPrefix + "files_" + id }
func chatKey(id string) string  { return keyPrefix + "chat_" + id }

// FileStore keeps every key as <dir>/<key>.json and writes atomically.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// Open creates dir if needed.
func Open(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, safeKey.ReplaceAllString(key, "_")+".json")
}

func (s *FileStore) get(key string, v any) error {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func (s *FileStore) put(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dst := s.path(key)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Projects lists stored project metadata, most recently modified first.
func (s *FileStore) Projects() ([]project.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects()
}

func (s *FileStore) projects() ([]project.Metadata, error) {
	var metas []project.Metadata
	if err := s.get(keyMeta, &metas); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].LastModified.After(metas[j].LastModified)
	})
	return metas, nil
}

// SaveProject writes the project's files and transcript and upserts its
// metadata entry.
func (s *FileStore) SaveProject(meta project.Metadata, files project.FileSet, chat []project.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(filesKey(meta.ID), files.Files()); err != nil {
		return fmt.Errorf("save files: %w", err)
	}
	if err := s.put(chatKey(meta.ID), chat); err != nil {
		return fmt.Errorf("save chat: %w", err)
	}
	metas, err := s.projects()
	if err != nil {
		return err
	}
	replaced := false
	for i := range metas {
		if metas[i].ID == meta.ID {
			metas[i], replaced = meta, true
		}
	}
	if !replaced {
		metas = append(metas, meta)
	}
	return s.put(keyMeta, metas)
}

// LoadProject reads one project back.
func (s *FileStore) LoadProject(id string) (project.Metadata, project.FileSet, []project.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	metas, err := s.projects()
	if err != nil {
		return project.Metadata{}, project.FileSet{}, nil, err
	}
	var meta project.Metadata
	found := false
	for _, m := range metas {
		if m.ID == id {
			meta, found = m, true
			break
		}
	}
	if !found {
		return project.Metadata{}, project.FileSet{}, nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	var files []project.File
	if err := s.get(filesKey(id), &files); err != nil && !errors.Is(err, ErrNotFound) {
		return project.Metadata{}, project.FileSet{}, nil, err
	}
	var chat []project.ChatMessage
	if err := s.get(chatKey(id), &chat); err != nil && !errors.Is(err, ErrNotFound) {
		return project.Metadata{}, project.FileSet{}, nil, err
	}
	return meta, project.NewFileSet(files...), chat, nil
}

func (s *FileStore) CustomModels() ([]project.CustomModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var models []project.CustomModel
	if err := s.get(keyCustomModels, &models); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return models, nil
}

func (s *FileStore) SaveCustomModels(models []project.CustomModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(keyCustomModels, models)
}

// DarkMode returns the stored theme flag, defaulting to dark.
func (s *FileStore) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var theme string
	if err := s.get(keyTheme, &theme); err != nil {
		return true
	}
	return theme != "light"
}

func (s *FileStore) SetDarkMode(dark bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	theme := "light"
	if dark {
		theme = "dark"
	}
	return s.put(keyTheme, theme)
}
