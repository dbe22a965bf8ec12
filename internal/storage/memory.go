package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory BlobStore used in tests and for ephemeral
// deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Save buffers the content under a fresh UUID
func (s *MemoryStore) Save(ctx context.Context, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("read blob: %w", err)
	}

	location := uuid.NewString()

	s.mu.Lock()
	s.blobs[location] = data
	s.mu.Unlock()

	return location, int64(len(data)), nil
}

// Open returns a reader over the stored bytes
func (s *MemoryStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[location]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("blob not found: %s", location)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Remove deletes the stored bytes
func (s *MemoryStore) Remove(ctx context.Context, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[location]; !ok {
		return fmt.Errorf("blob not found: %s", location)
	}

	delete(s.blobs, location)
	return nil
}

// Len reports how many blobs are stored; used by tests
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
