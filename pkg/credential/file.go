package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the token pair in a JSON file
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore at path
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the token file. A missing file is ErrNotFound.
func (s *FileStore) Load(_ context.Context) (TokenState, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return TokenState{}, ErrNotFound
	}
	if err != nil {
		return TokenState{}, fmt.Errorf("read token file: %w", err)
	}

	var state TokenState
	if err := json.Unmarshal(raw, &state); err != nil {
		return TokenState{}, fmt.Errorf("parse token file %s: %w", s.Path, err)
	}
	return state, nil
}

// Save writes the token file through a temp file and rename, so a crash
// never leaves a half-written token pair behind.
func (s *FileStore) Save(_ context.Context, state TokenState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
