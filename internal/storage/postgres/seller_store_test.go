package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/storage"
)

func TestSellerStore_UpsertAndGetByClass(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSellerStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "city-of-solitude", &domain.SellerCandidate{AccountID: "bob.testnet", SeenAt: 100}))
	require.NoError(t, store.Upsert(ctx, "city-of-solitude", &domain.SellerCandidate{AccountID: "alice.testnet", SeenAt: 200}))
	require.NoError(t, store.Upsert(ctx, "other-class", &domain.SellerCandidate{AccountID: "carol.testnet", SeenAt: 300}))

	candidates, err := store.GetByClass(ctx, "city-of-solitude")
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// Ordered by account_id ASC.
	assert.Equal(t, "alice.testnet", candidates[0].AccountID)
	assert.Equal(t, "bob.testnet", candidates[1].AccountID)
}

func TestSellerStore_UpsertKeepsFirstSeenAt(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSellerStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "class-a", &domain.SellerCandidate{AccountID: "bob.testnet", SeenAt: 100}))
	require.NoError(t, store.Upsert(ctx, "class-a", &domain.SellerCandidate{AccountID: "bob.testnet", SeenAt: 999}))

	candidates, err := store.GetByClass(ctx, "class-a")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(100), candidates[0].SeenAt)
}

func TestSellerStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSellerStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Upsert(ctx, "", &domain.SellerCandidate{AccountID: "x"}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Upsert(ctx, "class-a", nil), storage.ErrInvalidInput)
}
