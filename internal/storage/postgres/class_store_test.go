package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/storage"
)

func TestClassStore_UpsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClassStore(pool)
	ctx := context.Background()

	class := &domain.TokenClass{
		TokenClassID: "city-of-solitude",
		Metadata: domain.NFTMetadata{
			Title:        "City of Solitude",
			Description:  "Debut single",
			Media:        "https://gateway.pinata.cloud/ipfs/QmAudio",
			MediaHash:    "deadbeef",
			PricePerCopy: "100000000000000000000000",
			CoverPhoto:   "https://gateway.pinata.cloud/ipfs/QmCover",
		},
		CreatorID: "alice.testnet",
		IndexedAt: 1700000000000,
	}

	err := store.Upsert(ctx, class)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "city-of-solitude")
	require.NoError(t, err)

	assert.Equal(t, class.TokenClassID, retrieved.TokenClassID)
	assert.Equal(t, class.Metadata, retrieved.Metadata)
	assert.Equal(t, class.CreatorID, retrieved.CreatorID)
	assert.Equal(t, class.IndexedAt, retrieved.IndexedAt)
}

func TestClassStore_UpsertReplaces(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClassStore(pool)
	ctx := context.Background()

	class := &domain.TokenClass{
		TokenClassID: "city-of-solitude",
		Metadata:     domain.NFTMetadata{Title: "City of Solitude", PricePerCopy: "1"},
		IndexedAt:    100,
	}
	require.NoError(t, store.Upsert(ctx, class))

	class.Metadata.PricePerCopy = "2"
	class.IndexedAt = 200
	require.NoError(t, store.Upsert(ctx, class))

	retrieved, err := store.GetByID(ctx, "city-of-solitude")
	require.NoError(t, err)
	assert.Equal(t, "2", retrieved.Metadata.PricePerCopy)
	assert.Equal(t, int64(200), retrieved.IndexedAt)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestClassStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClassStore(pool)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClassStore_GetAllOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewClassStore(pool)
	ctx := context.Background()

	for _, id := range []string{"zebra", "alpha", "mango"} {
		require.NoError(t, store.Upsert(ctx, &domain.TokenClass{TokenClassID: id, IndexedAt: 1}))
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].TokenClassID)
	assert.Equal(t, "mango", all[1].TokenClassID)
	assert.Equal(t, "zebra", all[2].TokenClassID)
}
