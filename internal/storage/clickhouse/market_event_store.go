package clickhouse

import (
	"context"
	"fmt"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/storage"
)

// MarketEventStore implements storage.MarketEventStore using ClickHouse.
type MarketEventStore struct {
	conn *Conn
}

// NewMarketEventStore creates a new MarketEventStore.
func NewMarketEventStore(conn *Conn) *MarketEventStore {
	return &MarketEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MarketEventStore = (*MarketEventStore)(nil)

// Insert adds a new event. Events are append-only.
func (s *MarketEventStore) Insert(ctx context.Context, e *domain.MarketEvent) error {
	if e == nil || e.TokenClassID == "" || e.Type == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO market_events (
			token_class_id, event_type, account_id, counter_id, amount, deposit, timestamp_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		e.TokenClassID,
		string(e.Type),
		e.AccountID,
		e.CounterID,
		e.Amount,
		e.Deposit,
		uint64(e.TimestampMs),
	)
	if err != nil {
		return fmt.Errorf("insert market event: %w", err)
	}
	return nil
}

// GetByClass retrieves all events for a class, ordered by timestamp ASC.
func (s *MarketEventStore) GetByClass(ctx context.Context, tokenClassID string) ([]*domain.MarketEvent, error) {
	query := `
		SELECT token_class_id, event_type, account_id, counter_id, amount, deposit, timestamp_ms
		FROM market_events
		WHERE token_class_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenClassID)
	if err != nil {
		return nil, fmt.Errorf("get market events: %w", err)
	}
	defer rows.Close()

	var events []*domain.MarketEvent
	for rows.Next() {
		var (
			e           domain.MarketEvent
			eventType   string
			timestampMs uint64
		)
		err := rows.Scan(
			&e.TokenClassID,
			&eventType,
			&e.AccountID,
			&e.CounterID,
			&e.Amount,
			&e.Deposit,
			&timestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan market event row: %w", err)
		}
		e.Type = domain.EventType(eventType)
		e.TimestampMs = int64(timestampMs)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market event rows: %w", err)
	}

	return events, nil
}
