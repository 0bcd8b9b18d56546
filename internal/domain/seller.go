package domain

// SellerCandidate is an account observed holding copies of some class.
// The contract has no "all sellers of a class" view, so candidates are
// collected locally and intersected against on-chain approvals at buy time.
// Corresponds to seller_candidates table in PostgreSQL.
type SellerCandidate struct {
	AccountID string // PRIMARY KEY
	SeenAt    int64  // first observation, Unix timestamp in milliseconds
}
