// Package store keeps the bytes of single-page PDFs, keyed by page id.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

type BlobStore interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, ids ...string) error
	Close() error
}

// Open returns an in-memory store for "" and ":memory:", and a SQLite store
// at path otherwise.
func Open(path string) (BlobStore, error) {
	if path == "" || path == ":memory:" {
		return NewMemory(), nil
	}
	return OpenSQLite(path)
}
