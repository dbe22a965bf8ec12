package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileSystemStore keeps blobs as flat files under a root directory.
// Location handles are random UUIDs, never derived from user input, so a
// handle can be joined onto the root without traversal concerns.
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a store rooted at the given directory,
// creating it if needed.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}

	return &FileSystemStore{root: root}, nil
}

// Save writes the content to a new file named by a fresh UUID
func (s *FileSystemStore) Save(ctx context.Context, r io.Reader) (string, int64, error) {
	location := uuid.NewString()
	destPath := filepath.Join(s.root, location)

	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create blob file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(destPath)
		return "", 0, fmt.Errorf("write blob: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return "", 0, fmt.Errorf("close blob file: %w", err)
	}

	return location, written, nil
}

// Open returns a reader over the blob file
func (s *FileSystemStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	path, err := s.resolve(location)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found: %s", location)
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}

	return f, nil
}

// Remove deletes the blob file
func (s *FileSystemStore) Remove(ctx context.Context, location string) error {
	path, err := s.resolve(location)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("blob not found: %s", location)
		}
		return fmt.Errorf("remove blob: %w", err)
	}

	return nil
}

// resolve validates a location handle and maps it to a path under root.
// Handles are always UUIDs this store issued, so anything with a path
// separator is rejected outright.
func (s *FileSystemStore) resolve(location string) (string, error) {
	if location == "" || strings.ContainsAny(location, `/\`) || strings.Contains(location, "..") {
		return "", fmt.Errorf("invalid blob location: %q", location)
	}
	return filepath.Join(s.root, location), nil
}
