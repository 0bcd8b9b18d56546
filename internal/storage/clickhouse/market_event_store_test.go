package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/storage"
)

func TestMarketEventStore_InsertAndGetByClass(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMarketEventStore(conn)
	ctx := context.Background()

	events := []*domain.MarketEvent{
		{
			TokenClassID: "city-of-solitude",
			Type:         domain.EventPurchase,
			AccountID:    "buyer.testnet",
			CounterID:    "seller.testnet",
			Amount:       "1",
			Deposit:      "100000000000000000000000",
			TimestampMs:  300,
		},
		{
			TokenClassID: "city-of-solitude",
			Type:         domain.EventMint,
			AccountID:    "alice.testnet",
			Amount:       "100",
			TimestampMs:  100,
		},
		{
			TokenClassID: "other-class",
			Type:         domain.EventApprove,
			AccountID:    "bob.testnet",
			Amount:       "5",
			TimestampMs:  200,
		},
	}
	for _, e := range events {
		require.NoError(t, store.Insert(ctx, e))
	}

	got, err := store.GetByClass(ctx, "city-of-solitude")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by timestamp ASC.
	assert.Equal(t, domain.EventMint, got[0].Type)
	assert.Equal(t, domain.EventPurchase, got[1].Type)
	assert.Equal(t, "seller.testnet", got[1].CounterID)
	assert.Equal(t, "100000000000000000000000", got[1].Deposit)
}

func TestMarketEventStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMarketEventStore(conn)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.MarketEvent{Type: domain.EventMint}), storage.ErrInvalidInput)
}

func TestMarketEventStore_EmptyClass(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewMarketEventStore(conn)
	ctx := context.Background()

	got, err := store.GetByClass(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, got)
}
