package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps blobs in process memory. It backs local development and
// tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string

	// FailUploads makes every Upload return an error.
	FailUploads bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		baseURL: "memory://blobs",
	}
}

func (m *MemoryStore) Upload(ctx context.Context, f File) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	fail := m.FailUploads
	m.mu.RUnlock()
	if fail {
		return nil, errors.New("upload rejected")
	}

	data, err := io.ReadAll(f.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	key := objectKey(f.Name)

	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()

	return &Object{URL: m.baseURL + "/" + key, PublicID: key}, nil
}

func (m *MemoryStore) Delete(ctx context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[publicID]; !ok {
		return ErrNotFound
	}
	delete(m.objects, publicID)
	return nil
}

// SetFailUploads toggles upload failures.
func (m *MemoryStore) SetFailUploads(fail bool) {
	m.mu.Lock()
	m.FailUploads = fail
	m.mu.Unlock()
}

// Has reports whether a blob with publicID is stored.
func (m *MemoryStore) Has(publicID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[publicID]
	return ok
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
