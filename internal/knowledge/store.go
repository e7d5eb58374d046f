package knowledge

import (
	"context"
	"sync"
)

// Store is the knowledge persistence capability. List and ListExternal are
// read as a consistent snapshot at the start of each matching/grouping
// operation; implementations must return copies, not live internals.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	// ListExternal returns the read-only secondary source, merged at query
	// time only and never mutated by this service.
	ListExternal(ctx context.Context) ([]Entry, error)
	Add(ctx context.Context, e Entry) error
	Delete(ctx context.Context, id string) error
}

// MemStore is an in-memory Store. It backs tests and standalone deployments
// that run without the KV collaborator.
type MemStore struct {
	mu       sync.Mutex
	entries  map[string]Entry
	order    []string
	external []Entry
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]Entry)}
}

// SetExternal replaces the read-only external entry set.
func (s *MemStore) SetExternal(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.external = append([]Entry(nil), entries...)
}

func (s *MemStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemStore) ListExternal(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.external...), nil
}

func (s *MemStore) Add(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[e.ID]; !exists {
		s.order = append(s.order, e.ID)
	}
	s.entries[e.ID] = e
	return nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return nil
	}
	delete(s.entries, id)
	for idx, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:idx], s.order[idx+1:]...)
			break
		}
	}
	return nil
}
