package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the key-value map as a single JSON document on disk.
// It is the durable analog of browser local storage: global to the machine,
// last writer wins. All keys share one file; writes replace the file
// atomically via a temporary sibling and rename.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFileStore loads the store at path, creating parent directories as
// needed. A missing file yields an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("localstore: path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("localstore: create directory: %w", err)
	}

	store := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("localstore: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(data, &store.values); err != nil {
		return nil, fmt.Errorf("localstore: decode %s: %w", path, err)
	}
	return store, nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	if s == nil {
		return "", false, errors.New("localstore: store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	if s == nil {
		return errors.New("localstore: store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

func (s *FileStore) Delete(key string) error {
	if s == nil {
		return errors.New("localstore: store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("localstore: encode: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("localstore: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("localstore: replace %s: %w", s.path, err)
	}
	return nil
}
