package memory

import (
	"context"
	"errors"
	"testing"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/storage"
)

func TestMarketEventStore_InsertAndGet(t *testing.T) {
	store := NewMarketEventStore()
	ctx := context.Background()

	events := []*domain.MarketEvent{
		{TokenClassID: "class-a", Type: domain.EventPurchase, AccountID: "buyer.testnet", CounterID: "seller.testnet", Deposit: "100000000000000000000000", TimestampMs: 300},
		{TokenClassID: "class-a", Type: domain.EventMint, AccountID: "alice.testnet", Amount: "100", TimestampMs: 100},
		{TokenClassID: "class-b", Type: domain.EventApprove, AccountID: "bob.testnet", Amount: "5", TimestampMs: 200},
	}
	for _, e := range events {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByClass(ctx, "class-a")
	if err != nil {
		t.Fatalf("GetByClass failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetByClass returned %d events, want 2", len(got))
	}
	// Ordered by timestamp ASC.
	if got[0].Type != domain.EventMint || got[1].Type != domain.EventPurchase {
		t.Errorf("unexpected order: %s, %s", got[0].Type, got[1].Type)
	}
	if got[1].CounterID != "seller.testnet" {
		t.Errorf("CounterID = %s, want seller.testnet", got[1].CounterID)
	}
}

func TestMarketEventStore_InvalidInput(t *testing.T) {
	store := NewMarketEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil event, got %v", err)
	}
	if err := store.Insert(ctx, &domain.MarketEvent{Type: domain.EventMint}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing class, got %v", err)
	}
	if err := store.Insert(ctx, &domain.MarketEvent{TokenClassID: "class-a"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing type, got %v", err)
	}
}

func TestMarketEventStore_EmptyClass(t *testing.T) {
	store := NewMarketEventStore()
	ctx := context.Background()

	got, err := store.GetByClass(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("GetByClass failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("GetByClass returned %d events, want 0", len(got))
	}
}
