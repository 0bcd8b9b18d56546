package domain

// EventType identifies a marketplace activity event.
type EventType string

const (
	EventClassListed EventType = "CLASS_LISTED" // class first observed by the indexer
	EventMint        EventType = "MINT"         // supply minted through this service
	EventApprove     EventType = "APPROVE"      // copies approved for sale
	EventPurchase    EventType = "PURCHASE"     // copy bought through the marketplace
)

// MarketEvent is one append-only marketplace activity record.
// Stored in ClickHouse for analytics; also fanned out to WebSocket clients.
type MarketEvent struct {
	TokenClassID string    `json:"token_class_id"`
	Type         EventType `json:"type"`
	AccountID    string    `json:"account_id"`   // acting account
	CounterID    string    `json:"counter_id"`   // seller on PURCHASE, empty otherwise
	Amount       string    `json:"amount"`       // copies, integer string
	Deposit      string    `json:"deposit"`      // attached yoctoNEAR, integer string
	TimestampMs  int64     `json:"timestamp_ms"` // event time
}
