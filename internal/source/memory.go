package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
)

// MemoryFetcher is a thread-safe in-memory Fetcher for testing and local
// development.
type MemoryFetcher struct {
	mu      sync.Mutex
	objects map[string][]byte
}

var _ Fetcher = (*MemoryFetcher)(nil)

// NewMemoryFetcher creates an empty in-memory document source.
func NewMemoryFetcher() *MemoryFetcher {
	return &MemoryFetcher{objects: make(map[string][]byte)}
}

// Put stores document bytes under the given identity.
func (f *MemoryFetcher) Put(id models.DocumentIdentity, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id.String()] = append([]byte(nil), data...)
}

func (f *MemoryFetcher) Fetch(_ context.Context, id models.DocumentIdentity) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[id.String()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrDocumentNotFound)
	}
	return append([]byte(nil), data...), nil
}
