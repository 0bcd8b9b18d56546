package memory

import (
	"context"
	"sort"
	"sync"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/storage"
)

// ClassStore is an in-memory implementation of storage.ClassStore.
type ClassStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenClass // keyed by token_class_id
}

// NewClassStore creates a new in-memory class store.
func NewClassStore() *ClassStore {
	return &ClassStore{
		data: make(map[string]*domain.TokenClass),
	}
}

// Upsert inserts or replaces a class by its token_class_id.
func (s *ClassStore) Upsert(_ context.Context, c *domain.TokenClass) error {
	if c == nil || c.TokenClassID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	classCopy := *c
	s.data[c.TokenClassID] = &classCopy
	return nil
}

// GetByID retrieves a class by its ID. Returns ErrNotFound if not exists.
func (s *ClassStore) GetByID(_ context.Context, tokenClassID string) (*domain.TokenClass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[tokenClassID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	classCopy := *c
	return &classCopy, nil
}

// GetAll retrieves all classes, ordered by token_class_id ASC.
func (s *ClassStore) GetAll(_ context.Context) ([]*domain.TokenClass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenClass, 0, len(s.data))
	for _, c := range s.data {
		classCopy := *c
		result = append(result, &classCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TokenClassID < result[j].TokenClassID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ClassStore = (*ClassStore)(nil)
