package memory

import (
	"context"
	"sort"
	"sync"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/storage"
)

// SellerStore is an in-memory implementation of storage.SellerStore.
type SellerStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*domain.SellerCandidate // class id -> account id -> candidate
}

// NewSellerStore creates a new in-memory seller store.
func NewSellerStore() *SellerStore {
	return &SellerStore{
		data: make(map[string]map[string]*domain.SellerCandidate),
	}
}

// Upsert records an account as a candidate seller for a class. SeenAt of
// an existing candidate is preserved: it marks the first observation.
func (s *SellerStore) Upsert(_ context.Context, tokenClassID string, cand *domain.SellerCandidate) error {
	if tokenClassID == "" || cand == nil || cand.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byAccount, exists := s.data[tokenClassID]
	if !exists {
		byAccount = make(map[string]*domain.SellerCandidate)
		s.data[tokenClassID] = byAccount
	}
	if _, exists := byAccount[cand.AccountID]; exists {
		return nil
	}

	candCopy := *cand
	byAccount[cand.AccountID] = &candCopy
	return nil
}

// GetByClass retrieves all candidates for a class, ordered by account_id ASC.
func (s *SellerStore) GetByClass(_ context.Context, tokenClassID string) ([]*domain.SellerCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byAccount := s.data[tokenClassID]
	result := make([]*domain.SellerCandidate, 0, len(byAccount))
	for _, cand := range byAccount {
		candCopy := *cand
		result = append(result, &candCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AccountID < result[j].AccountID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.SellerStore = (*SellerStore)(nil)
