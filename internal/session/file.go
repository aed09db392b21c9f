package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pokando/pokando/pkg/domain"
)

// FileStore persists the session as JSON in a single file, readable only
// by the current user.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// savedSession is the JSON structure written to disk.
type savedSession struct {
	Key     string         `json:"key"`
	Session domain.Session `json:"session"`
}

// NewFileStore returns a store backed by path. The file and its parent
// directory are created on the first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get() (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("session.FileStore.Get: %w", err)
	}

	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return domain.Session{}, false, fmt.Errorf("session.FileStore.Get: decode %s: %w", s.path, err)
	}
	if saved.Key != TokenKey || !saved.Session.Valid() {
		return domain.Session{}, false, nil
	}
	return saved.Session, true, nil
}

func (s *FileStore) Set(sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(savedSession{Key: TokenKey, Session: sess}, "", "  ")
	if err != nil {
		return fmt.Errorf("session.FileStore.Set: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session.FileStore.Set: create dir: %w", err)
	}

	// Write then rename so a crash never leaves a half-written session.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("session.FileStore.Set: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("session.FileStore.Set: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("session.FileStore.Set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session.FileStore.Set: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("session.FileStore.Set: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session.FileStore.Clear: %w", err)
	}
	return nil
}
