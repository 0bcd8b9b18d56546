package memory

import (
	"context"
	"sort"
	"sync"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/storage"
)

// MarketEventStore is an in-memory implementation of storage.MarketEventStore.
type MarketEventStore struct {
	mu   sync.RWMutex
	data []*domain.MarketEvent
}

// NewMarketEventStore creates a new in-memory market event store.
func NewMarketEventStore() *MarketEventStore {
	return &MarketEventStore{}
}

// Insert adds a new event. Events are append-only.
func (s *MarketEventStore) Insert(_ context.Context, e *domain.MarketEvent) error {
	if e == nil || e.TokenClassID == "" || e.Type == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eventCopy := *e
	s.data = append(s.data, &eventCopy)
	return nil
}

// GetByClass retrieves all events for a class, ordered by timestamp ASC.
func (s *MarketEventStore) GetByClass(_ context.Context, tokenClassID string) ([]*domain.MarketEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketEvent
	for _, e := range s.data {
		if e.TokenClassID == tokenClassID {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.MarketEventStore = (*MarketEventStore)(nil)
