package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/storyloom/storyflow/pkg/entity"
)

// MemoryStore keeps snapshots in memory. Safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]entity.Entity
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]entity.Entity)}
}

// Load returns the named snapshot or ErrNotFound.
func (s *MemoryStore) Load(ctx context.Context, name string) (*entity.Collection, error) {
	s.mu.RLock()
	entities, ok := s.snapshots[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	c, _ := entity.FromSlice(entities)
	return c, nil
}

// Save stores a snapshot under a name.
func (s *MemoryStore) Save(ctx context.Context, name string, c *entity.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[name] = c.All()
	return nil
}

// List returns the stored snapshot names, sorted.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.snapshots)), nil
}

// Delete removes a snapshot.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, name)
	return nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
