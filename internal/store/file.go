package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// FileStore persists the whole key space as one JSON file. It exists so
// the tool runs without Redis; every Set rewrites the file atomically
// (temp file + rename) before returning.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
	log     zerolog.Logger
}

// OpenFileStore loads an existing store file or starts empty. A corrupt
// file is discarded rather than failing startup.
func OpenFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		entries: make(map[string]string),
		log:     log.With().Str("component", "file_store").Logger(),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.entries); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("store file corrupt, starting empty")
		s.entries = make(map[string]string)
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = value
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
