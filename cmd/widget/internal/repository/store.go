package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds nothing.
var ErrNotFound = errors.New("blob not found")

// BlobStore is a single-value-per-key store for serialized state.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
