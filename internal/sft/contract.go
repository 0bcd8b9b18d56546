package sft

import (
	"encoding/json"
	"fmt"

	"near-sft-market/internal/domain"
)

// Contract method names. View methods are read through the RPC query
// endpoint; the rest are change calls.
const (
	methodMint            = "sft_mint"
	methodMetadata        = "sft_metadata"
	methodAllMetadata     = "sft_get_all_metadata"
	methodGetOwners       = "sft_get_owners"
	methodInventoryOf     = "sft_inventory_of_owner"
	methodBalanceOf       = "sft_balance_of"
	methodApprove         = "sft_approve"
	methodRevoke          = "sft_revoke"
	methodTransfer        = "sft_transfer"
	methodApprovedSellers = "get_market_approved_sellers"
	methodBuy             = "market_buy_sft"
)

// decodeMetadata decodes the sft_metadata result: a 6-tuple of nullable
// strings (title, description, media, media_hash, price_per_copy,
// cover_photo) serialized as a JSON array. All elements are null when the
// class does not exist.
func decodeMetadata(raw []byte) (*domain.NFTMetadata, bool, error) {
	var fields []*string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false, fmt.Errorf("decode metadata tuple: %w", err)
	}
	if len(fields) != 6 {
		return nil, false, fmt.Errorf("metadata tuple has %d fields, want 6", len(fields))
	}
	if fields[0] == nil {
		return nil, false, nil
	}
	for i, f := range fields {
		if f == nil {
			return nil, false, fmt.Errorf("metadata tuple field %d is null", i)
		}
	}

	return &domain.NFTMetadata{
		Title:        *fields[0],
		Description:  *fields[1],
		Media:        *fields[2],
		MediaHash:    *fields[3],
		PricePerCopy: *fields[4],
		CoverPhoto:   *fields[5],
	}, true, nil
}

// DecodeAllMetadata decodes the sft_get_all_metadata result: eight
// parallel arrays (class ids, titles, descriptions, media urls, media
// hashes, prices, cover photos, creator ids) zipped into TokenClass
// structs. indexedAt stamps every returned class.
func DecodeAllMetadata(raw []byte, indexedAt int64) ([]*domain.TokenClass, error) {
	var columns [][]string
	if err := json.Unmarshal(raw, &columns); err != nil {
		return nil, fmt.Errorf("decode metadata columns: %w", err)
	}
	if len(columns) != 8 {
		return nil, fmt.Errorf("metadata result has %d columns, want 8", len(columns))
	}

	ids := columns[0]
	for i, col := range columns[1:] {
		if len(col) != len(ids) {
			return nil, fmt.Errorf("metadata column %d has %d rows, want %d", i+1, len(col), len(ids))
		}
	}

	classes := make([]*domain.TokenClass, 0, len(ids))
	for i, id := range ids {
		classes = append(classes, &domain.TokenClass{
			TokenClassID: id,
			Metadata: domain.NFTMetadata{
				Title:        columns[1][i],
				Description:  columns[2][i],
				Media:        columns[3][i],
				MediaHash:    columns[4][i],
				PricePerCopy: columns[5][i],
				CoverPhoto:   columns[6][i],
			},
			CreatorID: columns[7][i],
			IndexedAt: indexedAt,
		})
	}
	return classes, nil
}
