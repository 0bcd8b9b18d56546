package domain

// NFTMetadata describes one token class as stored on-chain.
// All URLs point at the pinning gateway; price_per_copy is a
// yoctoNEAR integer encoded as a decimal string.
type NFTMetadata struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Media        string `json:"media"`      // URL to the audio file
	MediaHash    string `json:"media_hash"` // hex sha256 of the audio file
	PricePerCopy string `json:"price_per_copy"`
	CoverPhoto   string `json:"cover_photo"`
}

// TokenClass is a named, priced, fungible-within-class asset definition.
// Corresponds to token_classes table in PostgreSQL.
type TokenClass struct {
	TokenClassID string      `json:"token_class_id"` // PRIMARY KEY, slug derived from title
	Metadata     NFTMetadata `json:"metadata"`
	CreatorID    string      `json:"creator_id"`
	IndexedAt    int64       `json:"indexed_at"` // Unix timestamp in milliseconds
}

// Inventory maps token_class_id to a balance integer string for one account.
type Inventory map[string]string
