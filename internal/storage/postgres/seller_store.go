package postgres

import (
	"context"
	"fmt"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/storage"
)

// SellerStore implements storage.SellerStore using PostgreSQL.
type SellerStore struct {
	pool *Pool
}

// NewSellerStore creates a new SellerStore.
func NewSellerStore(pool *Pool) *SellerStore {
	return &SellerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SellerStore = (*SellerStore)(nil)

// Upsert records an account as a candidate seller for a class. An existing
// row is left untouched so seen_at keeps the first observation.
func (s *SellerStore) Upsert(ctx context.Context, tokenClassID string, cand *domain.SellerCandidate) error {
	if tokenClassID == "" || cand == nil || cand.AccountID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO seller_candidates (token_class_id, account_id, seen_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_class_id, account_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query, tokenClassID, cand.AccountID, cand.SeenAt)
	if err != nil {
		return fmt.Errorf("upsert seller candidate: %w", err)
	}
	return nil
}

// GetByClass retrieves all candidates for a class, ordered by account_id ASC.
func (s *SellerStore) GetByClass(ctx context.Context, tokenClassID string) ([]*domain.SellerCandidate, error) {
	query := `
		SELECT account_id, seen_at
		FROM seller_candidates
		WHERE token_class_id = $1
		ORDER BY account_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenClassID)
	if err != nil {
		return nil, fmt.Errorf("get seller candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*domain.SellerCandidate
	for rows.Next() {
		var cand domain.SellerCandidate
		if err := rows.Scan(&cand.AccountID, &cand.SeenAt); err != nil {
			return nil, fmt.Errorf("scan seller candidate row: %w", err)
		}
		candidates = append(candidates, &cand)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seller candidate rows: %w", err)
	}

	return candidates, nil
}
