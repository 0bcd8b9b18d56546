package storage

import (
	"context"

	"near-sft-market/internal/domain"
)

// ClassStore provides access to token_classes storage. The table mirrors
// on-chain state, so writes are upserts keyed by token_class_id.
type ClassStore interface {
	// Upsert inserts or replaces a class by its token_class_id.
	Upsert(ctx context.Context, c *domain.TokenClass) error

	// GetByID retrieves a class by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tokenClassID string) (*domain.TokenClass, error)

	// GetAll retrieves all classes, ordered by token_class_id ASC.
	GetAll(ctx context.Context) ([]*domain.TokenClass, error)
}

// SellerStore provides access to seller_candidates storage. A candidate is
// an account seen holding copies of a class; rows are upserts keyed by
// (token_class_id, account_id) and SeenAt keeps the first observation.
type SellerStore interface {
	// Upsert records an account as a candidate seller for a class.
	Upsert(ctx context.Context, tokenClassID string, s *domain.SellerCandidate) error

	// GetByClass retrieves all candidates for a class, ordered by account_id ASC.
	GetByClass(ctx context.Context, tokenClassID string) ([]*domain.SellerCandidate, error)
}

// MarketEventStore provides access to market_events storage.
type MarketEventStore interface {
	// Insert adds a new event. Events are append-only.
	Insert(ctx context.Context, e *domain.MarketEvent) error

	// GetByClass retrieves all events for a class, ordered by timestamp ASC.
	GetByClass(ctx context.Context, tokenClassID string) ([]*domain.MarketEvent, error)
}
