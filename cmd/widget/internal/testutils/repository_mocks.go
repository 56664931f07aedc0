package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/shubham-shewale/watchlist-widget/cmd/widget/internal/repository"
)

// MockBlobStore records writes and can be told to fail reads or writes.
type MockBlobStore struct {
	Mu      sync.Mutex
	Blobs   map[string][]byte
	Writes  int
	FailGet bool
	FailSet bool
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{Blobs: make(map[string][]byte)}
}

func (m *MockBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailGet {
		return nil, errors.New("storage unavailable")
	}
	b, ok := m.Blobs[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (m *MockBlobStore) Set(ctx context.Context, key string, value []byte) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailSet {
		return errors.New("quota exceeded")
	}
	m.Writes++
	m.Blobs[key] = append([]byte(nil), value...)
	return nil
}

func (m *MockBlobStore) Close() error { return nil }

func (m *MockBlobStore) Raw(key string) string {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return string(m.Blobs[key])
}
