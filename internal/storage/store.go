// Package storage provides the blob store capability: physical bytes go
// in, an opaque location handle comes back. The tree keeps only the
// handle; everything else about the bytes is the store's business.
package storage

import (
	"context"
	"fmt"
	"io"
)

// BlobStore stores and retrieves file content by opaque location handles
type BlobStore interface {
	// Save streams the reader's content into the store and returns the
	// location handle plus the number of bytes written
	Save(ctx context.Context, r io.Reader) (location string, size int64, err error)

	// Open returns a reader for the blob at the given location.
	// The caller must close it.
	Open(ctx context.Context, location string) (io.ReadCloser, error)

	// Remove deletes the blob at the given location. Removing a location
	// that does not exist is an error.
	Remove(ctx context.Context, location string) error
}

// Config selects and parameterizes a blob store implementation
type Config struct {
	// Type is "filesystem" or "memory"
	Type string

	// Root is the directory for the filesystem store
	Root string
}

// New creates a BlobStore from config
func New(cfg Config) (BlobStore, error) {
	switch cfg.Type {
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem blob store requires a root directory")
		}
		return NewFileSystemStore(cfg.Root)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", cfg.Type)
	}
}
