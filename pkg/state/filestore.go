package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the keyed values in a single JSON document on disk,
// rewritten on every mutation. It is the default backend for a gateway
// running on the shopper's own machine.
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// NewFileStore loads any existing document at path. A missing file starts
// empty; a malformed file is discarded rather than failing startup.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is required")
	}

	fs := &FileStore{path: path, values: map[string]string{}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	if err := json.Unmarshal(raw, &fs.values); err != nil {
		fs.values = map[string]string{}
	}
	return fs, nil
}

func (fs *FileStore) Get(_ context.Context, key string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	val, ok := fs.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (fs *FileStore) Set(_ context.Context, key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.values[key] = value
	return fs.flushLocked()
}

func (fs *FileStore) Delete(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.values[key]; !ok {
		return nil
	}
	delete(fs.values, key)
	return fs.flushLocked()
}

// flushLocked writes via a temp file and rename so a crash mid-write never
// leaves a truncated document.
func (fs *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing state file: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
