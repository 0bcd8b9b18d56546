// Package indexer keeps the local marketplace index in sync with the
// contract. The contract has no "all sellers of a class" query, so the
// runner polls the full class list and the owner set, upserts both into
// storage and emits change events for live subscribers.
package indexer

import (
	"context"
	"errors"
	"log"
	"time"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/observability"
	"near-sft-market/internal/storage"
)

// DefaultInterval is the default polling interval.
const DefaultInterval = 30 * time.Second

// Chain is the read surface the runner polls. Implemented by sft.Service.
type Chain interface {
	AllClasses(ctx context.Context) ([]*domain.TokenClass, error)
	Owners(ctx context.Context) ([]string, error)
	Inventory(ctx context.Context, accountID string) (domain.Inventory, error)
}

// Options configures a Runner.
type Options struct {
	Chain   Chain
	Classes storage.ClassStore
	Sellers storage.SellerStore
	Events  storage.MarketEventStore // optional
	OnEvent func(*domain.MarketEvent)

	Interval time.Duration
	Logger   *log.Logger
	Now      func() time.Time
}

// Runner polls the contract on an interval and mirrors its state into
// the local stores.
type Runner struct {
	chain   Chain
	classes storage.ClassStore
	sellers storage.SellerStore
	events  storage.MarketEventStore
	onEvent func(*domain.MarketEvent)

	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// New creates a Runner.
func New(opts Options) *Runner {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		chain:    opts.Chain,
		classes:  opts.Classes,
		sellers:  opts.Sellers,
		events:   opts.Events,
		onEvent:  opts.OnEvent,
		interval: interval,
		logger:   logger,
		now:      now,
	}
}

// Run syncs immediately and then on every interval tick until the
// context is canceled. Sync failures are logged and retried on the next
// tick; they never stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.SyncOnce(ctx); err != nil {
		r.logger.Printf("WARN: initial sync: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.SyncOnce(ctx); err != nil {
				r.logger.Printf("WARN: sync: %v", err)
			}
		}
	}
}

// SyncOnce performs one full sync: classes first, then the owner set.
func (r *Runner) SyncOnce(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordIndexerSync(time.Since(start).Seconds(), err)
		if err == nil {
			observability.DefaultMetrics.LastSuccessfulSync.Set(float64(r.now().Unix()))
		}
	}()

	classCount, err := r.syncClasses(ctx)
	if err != nil {
		return err
	}

	sellerCount, err := r.syncOwners(ctx)
	if err != nil {
		return err
	}

	observability.UpdateIndexSizes(classCount, sellerCount)
	return nil
}

// syncClasses mirrors the contract's class list into the class store and
// emits a CLASS_LISTED event for every class seen for the first time.
func (r *Runner) syncClasses(ctx context.Context) (int, error) {
	classes, err := r.chain.AllClasses(ctx)
	if err != nil {
		return 0, err
	}

	for _, class := range classes {
		_, getErr := r.classes.GetByID(ctx, class.TokenClassID)
		isNew := errors.Is(getErr, storage.ErrNotFound)
		if getErr != nil && !isNew {
			return 0, getErr
		}

		if err := r.classes.Upsert(ctx, class); err != nil {
			return 0, err
		}

		if isNew {
			r.emit(ctx, &domain.MarketEvent{
				TokenClassID: class.TokenClassID,
				Type:         domain.EventClassListed,
				AccountID:    class.CreatorID,
				Amount:       "0",
				TimestampMs:  r.now().UnixMilli(),
			})
		}
	}
	return len(classes), nil
}

// syncOwners records every account holding copies of a class as a
// candidate seller for that class.
func (r *Runner) syncOwners(ctx context.Context) (int, error) {
	owners, err := r.chain.Owners(ctx)
	if err != nil {
		return 0, err
	}

	seen := r.now().UnixMilli()
	count := 0
	for _, owner := range owners {
		inventory, err := r.chain.Inventory(ctx, owner)
		if err != nil {
			// One unreadable owner should not fail the whole sweep.
			r.logger.Printf("WARN: %v", err)
			continue
		}

		for classID, balance := range inventory {
			if balance == "" || balance == "0" {
				continue
			}
			cand := &domain.SellerCandidate{AccountID: owner, SeenAt: seen}
			if err := r.sellers.Upsert(ctx, classID, cand); err != nil {
				return 0, err
			}
			count++
		}
	}
	return count, nil
}

func (r *Runner) emit(ctx context.Context, e *domain.MarketEvent) {
	if r.events != nil {
		if err := r.events.Insert(ctx, e); err != nil {
			r.logger.Printf("WARN: record %s event for %s: %v", e.Type, e.TokenClassID, err)
		}
	}
	if r.onEvent != nil {
		r.onEvent(e)
	}
}
