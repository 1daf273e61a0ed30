// Package file persists the destination set as a JSON array in a local file.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/chatrelay/internal/store/codec"
	"github.com/MrSnakeDoc/chatrelay/internal/utils"
)

// Store reads and writes a single JSON file
type Store struct {
	path string
}

// NewStore creates the parent directory if needed.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("file store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Name identifies the backend in logs and health output
func (s *Store) Name() string { return "file" }

// Path returns the file in use
func (s *Store) Path() string { return s.path }

// Load reads the destination set. A missing file is an empty set.
func (s *Store) Load(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	ids, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return ids, nil
}

// Save writes the set to a temp file in the same directory and renames it
// over the target so readers never observe a partial write.
func (s *Store) Save(_ context.Context, ids []string) error {
	data, err := codec.Encode(ids)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		utils.Close(tmp)
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; the file is opened per operation.
func (s *Store) Close() error { return nil }
