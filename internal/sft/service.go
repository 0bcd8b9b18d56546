// Package sft implements the token-class service: minting, listing,
// approvals and marketplace purchases against the SFT contract. Change
// calls are submitted at most once; retrying is the caller's decision.
package sft

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"sort"
	"strconv"
	"time"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/near"
	"near-sft-market/internal/observability"
	"near-sft-market/internal/pinning"
	"near-sft-market/internal/slug"
	"near-sft-market/internal/storage"
)

// Gas and deposit constants per change-call type. Storage deposits are
// over-provisioned; the contract refunds the excess.
const (
	mintGas     = 100_000_000_000_000 // 100 TGas
	approveGas  = 30_000_000_000_000
	revokeGas   = 30_000_000_000_000
	transferGas = 30_000_000_000_000
	buyGas      = 100_000_000_000_000 // purchase chains transfer promises

	mintStorageDeposit    = "10000000000000000000000" // 0.01 NEAR
	approveStorageDeposit = "5000000000000000000000"  // 0.005 NEAR
	oneYocto              = "1"
)

// Signer is the wallet session surface the service needs.
// Implemented by wallet.Session.
type Signer interface {
	IsSignedIn() bool
	AccountID() string
	SignAndSend(ctx context.Context, receiverID string, actions []near.Action) (*near.TxOutcome, error)
}

// Options configures a Service. RPC, Contract and Pinner are required for
// the full surface; Sellers, Events and OnEvent are optional.
type Options struct {
	RPC      near.RPCClient
	Signer   Signer
	Pinner   pinning.Pinner
	Contract string // SFT contract account, also the marketplace account

	Sellers storage.SellerStore      // local seller candidate index
	Events  storage.MarketEventStore // activity log
	OnEvent func(*domain.MarketEvent)

	Logger *log.Logger
	Now    func() time.Time
}

// Service exposes the marketplace operations over one SFT contract.
type Service struct {
	rpc      near.RPCClient
	signer   Signer
	pinner   pinning.Pinner
	contract string
	sellers  storage.SellerStore
	events   storage.MarketEventStore
	onEvent  func(*domain.MarketEvent)
	logger   *log.Logger
	now      func() time.Time
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		rpc:      opts.RPC,
		signer:   opts.Signer,
		pinner:   opts.Pinner,
		contract: opts.Contract,
		sellers:  opts.Sellers,
		events:   opts.Events,
		onEvent:  opts.OnEvent,
		logger:   logger,
		now:      now,
	}
}

// MintRequest describes a mint. For a new title all metadata fields and
// both files are required; for an existing title only Copies is used.
type MintRequest struct {
	Title       string
	Description string
	Copies      uint64
	Price       string // human NEAR decimal, e.g. "0.1"

	Audio     []byte
	AudioName string
	Cover     []byte
	CoverName string
}

// MintResult reports a submitted mint.
type MintResult struct {
	TokenClassID string
	TxHash       string
	NewClass     bool
	MediaURL     string
	CoverURL     string
}

// Mint credits req.Copies of the class derived from req.Title to the
// signed-in account. A new title uploads the audio and cover, pins the
// metadata document and creates the class on-chain; an existing title is
// a supply increase with no uploads and no metadata arguments.
func (s *Service) Mint(ctx context.Context, req *MintRequest) (*MintResult, error) {
	account, err := s.requireSigner()
	if err != nil {
		return nil, err
	}

	classID := slug.Make(req.Title)
	if classID == "" {
		return nil, invalidf("title %q yields an empty token class id", req.Title)
	}
	if req.Copies == 0 {
		return nil, invalidf("copies must be positive")
	}

	_, exists, err := s.classMetadata(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("check class %s: %w", classID, err)
	}

	args := map[string]interface{}{
		"token_class_id": classID,
		"amount":         strconv.FormatUint(req.Copies, 10),
		"receiver_id":    account,
	}

	result := &MintResult{TokenClassID: classID, NewClass: !exists}
	if !exists {
		priceYocto, err := domain.ParseNearAmount(req.Price)
		if err != nil {
			return nil, invalidf("price: %v", err)
		}
		if len(req.Audio) == 0 {
			return nil, invalidf("audio file is required for a new class")
		}
		if len(req.Cover) == 0 {
			return nil, invalidf("cover photo is required for a new class")
		}

		mediaURL, err := s.pin(ctx, "file", func() (string, error) {
			return s.pinner.PinFile(ctx, req.AudioName, req.Audio)
		})
		if err != nil {
			return nil, uploadError("pin audio", err)
		}
		mediaHash := sha256.Sum256(req.Audio)

		coverURL, err := s.pin(ctx, "file", func() (string, error) {
			return s.pinner.PinFile(ctx, req.CoverName, req.Cover)
		})
		if err != nil {
			return nil, uploadError("pin cover", err)
		}

		meta := domain.NFTMetadata{
			Title:        req.Title,
			Description:  req.Description,
			Media:        mediaURL,
			MediaHash:    hex.EncodeToString(mediaHash[:]),
			PricePerCopy: priceYocto,
			CoverPhoto:   coverURL,
		}

		// Off-chain copy of the metadata document. Failure aborts: a
		// mint must not reference uploads the caller cannot resolve.
		metaURL, err := s.pin(ctx, "json", func() (string, error) {
			return s.pinner.PinJSON(ctx, meta)
		})
		if err != nil {
			return nil, uploadError("pin metadata", err)
		}
		s.logger.Printf("pinned metadata for %s at %s", classID, metaURL)

		args["title"] = meta.Title
		args["description"] = meta.Description
		args["media"] = meta.Media
		args["media_hash"] = meta.MediaHash
		args["price_per_copy"] = meta.PricePerCopy
		args["cover_photo"] = meta.CoverPhoto

		result.MediaURL = mediaURL
		result.CoverURL = coverURL
	}

	outcome, err := s.change(ctx, methodMint, args, mintGas, mintStorageDeposit)
	if err != nil {
		return nil, err
	}
	result.TxHash = outcome.Hash

	if result.NewClass {
		observability.RecordMint("new_class")
	} else {
		observability.RecordMint("supply_increase")
	}
	s.recordEvent(ctx, &domain.MarketEvent{
		TokenClassID: classID,
		Type:         domain.EventMint,
		AccountID:    account,
		Amount:       strconv.FormatUint(req.Copies, 10),
		TimestampMs:  s.now().UnixMilli(),
	})
	s.noteSeller(ctx, classID, account)

	return result, nil
}

// AllClasses fetches every token class known to the contract.
func (s *Service) AllClasses(ctx context.Context) ([]*domain.TokenClass, error) {
	res, err := s.view(ctx, methodAllMetadata, map[string]interface{}{})
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return DecodeAllMetadata(res, s.now().UnixMilli())
}

// ListAllClasses returns every token class known to the contract. Read
// failures degrade to an empty slice so list views keep rendering.
func (s *Service) ListAllClasses(ctx context.Context) []*domain.TokenClass {
	classes, err := s.AllClasses(ctx)
	if err != nil {
		s.logger.Printf("WARN: list classes: %v", err)
		return nil
	}
	return classes
}

// Owners fetches every account that ever held copies of some class.
func (s *Service) Owners(ctx context.Context) ([]string, error) {
	res, err := s.view(ctx, methodGetOwners, map[string]interface{}{})
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}

	var owners []string
	if err := json.Unmarshal(res, &owners); err != nil {
		return nil, fmt.Errorf("decode owners: %w", err)
	}
	return owners, nil
}

// Inventory fetches the class balances of one account.
func (s *Service) Inventory(ctx context.Context, accountID string) (domain.Inventory, error) {
	res, err := s.view(ctx, methodInventoryOf, map[string]interface{}{
		"account_id": accountID,
	})
	if err != nil {
		return nil, fmt.Errorf("inventory of %s: %w", accountID, err)
	}

	inv := domain.Inventory{}
	if err := json.Unmarshal(res, &inv); err != nil {
		return nil, fmt.Errorf("decode inventory of %s: %w", accountID, err)
	}
	return inv, nil
}

// InventoryOf returns the class balances of one account. Read failures
// degrade to an empty inventory.
func (s *Service) InventoryOf(ctx context.Context, accountID string) domain.Inventory {
	inv, err := s.Inventory(ctx, accountID)
	if err != nil {
		s.logger.Printf("WARN: %v", err)
		return domain.Inventory{}
	}
	return inv
}

// BalanceOf returns the copies of classID held by accountID as an
// integer string.
func (s *Service) BalanceOf(ctx context.Context, accountID, classID string) (string, error) {
	res, err := s.view(ctx, methodBalanceOf, map[string]interface{}{
		"account_id":     accountID,
		"token_class_id": classID,
	})
	if err != nil {
		return "", fmt.Errorf("balance of %s: %w", accountID, err)
	}

	var balance string
	if err := json.Unmarshal(res, &balance); err != nil {
		return "", fmt.Errorf("decode balance: %w", err)
	}
	return balance, nil
}

// Approve lets the marketplace contract sell amount copies of classID on
// behalf of the signed-in account. The amount is validated against the
// on-chain balance before anything is submitted.
func (s *Service) Approve(ctx context.Context, classID, amount string) (string, error) {
	account, err := s.requireSigner()
	if err != nil {
		return "", err
	}

	n, ok := new(big.Int).SetString(amount, 10)
	if !ok || n.Sign() <= 0 {
		return "", invalidf("approve amount %q is not a positive integer", amount)
	}

	balanceStr, err := s.BalanceOf(ctx, account, classID)
	if err != nil {
		return "", err
	}
	balance, ok := new(big.Int).SetString(balanceStr, 10)
	if !ok {
		return "", fmt.Errorf("contract returned malformed balance %q", balanceStr)
	}
	if n.Cmp(balance) > 0 {
		return "", invalidf("approve amount %s exceeds balance %s", amount, balanceStr)
	}

	outcome, err := s.change(ctx, methodApprove, map[string]interface{}{
		"account_id_to_approve": s.contract,
		"token_class_id":        classID,
		"amount":                amount,
	}, approveGas, approveStorageDeposit)
	if err != nil {
		return "", err
	}

	observability.RecordApproval()
	s.recordEvent(ctx, &domain.MarketEvent{
		TokenClassID: classID,
		Type:         domain.EventApprove,
		AccountID:    account,
		Amount:       amount,
		TimestampMs:  s.now().UnixMilli(),
	})
	s.noteSeller(ctx, classID, account)

	return outcome.Hash, nil
}

// Revoke withdraws the marketplace approval for classID.
func (s *Service) Revoke(ctx context.Context, classID string) (string, error) {
	if _, err := s.requireSigner(); err != nil {
		return "", err
	}

	outcome, err := s.change(ctx, methodRevoke, map[string]interface{}{
		"account_id_to_revoke": s.contract,
		"token_class_id":       classID,
	}, revokeGas, oneYocto)
	if err != nil {
		return "", err
	}
	return outcome.Hash, nil
}

// FindApprovedSellers resolves which accounts currently have copies of
// classID approved for marketplace sale. The caller's candidates are
// merged with the local seller index; the contract filters them down to
// actual approvals. Read failures degrade to an empty map.
func (s *Service) FindApprovedSellers(ctx context.Context, classID string, candidates []string) map[string]string {
	merged := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c != "" {
			merged[c] = struct{}{}
		}
	}
	if s.sellers != nil {
		indexed, err := s.sellers.GetByClass(ctx, classID)
		if err != nil {
			s.logger.Printf("WARN: seller index for %s: %v", classID, err)
		}
		for _, cand := range indexed {
			merged[cand.AccountID] = struct{}{}
		}
	}
	if len(merged) == 0 {
		return map[string]string{}
	}

	sellerIDs := make([]string, 0, len(merged))
	for id := range merged {
		sellerIDs = append(sellerIDs, id)
	}
	sort.Strings(sellerIDs)

	res, err := s.view(ctx, methodApprovedSellers, map[string]interface{}{
		"token_class_id": classID,
		"seller_ids":     sellerIDs,
	})
	if err != nil {
		s.logger.Printf("WARN: approved sellers for %s: %v", classID, err)
		return map[string]string{}
	}

	approved := map[string]string{}
	if err := json.Unmarshal(res, &approved); err != nil {
		s.logger.Printf("WARN: approved sellers for %s: %v", classID, err)
		return map[string]string{}
	}
	return approved
}

// Buy purchases one copy of classID from sellerID, attaching the class
// price as the deposit.
func (s *Service) Buy(ctx context.Context, classID, sellerID string) (string, error) {
	account, err := s.requireSigner()
	if err != nil {
		return "", err
	}
	if sellerID == "" {
		return "", invalidf("seller is required")
	}
	if account == sellerID {
		return "", invalidf("buyer and seller cannot be the same account")
	}

	meta, exists, err := s.classMetadata(ctx, classID)
	if err != nil {
		return "", fmt.Errorf("look up class %s: %w", classID, err)
	}
	if !exists {
		return "", invalidf("unknown token class %q", classID)
	}
	if !domain.IsBalanceString(meta.PricePerCopy) {
		return "", fmt.Errorf("class %s has malformed price %q", classID, meta.PricePerCopy)
	}

	outcome, err := s.change(ctx, methodBuy, map[string]interface{}{
		"token_class_id": classID,
		"seller_id":      sellerID,
	}, buyGas, meta.PricePerCopy)
	if err != nil {
		return "", err
	}

	observability.RecordPurchase()
	s.recordEvent(ctx, &domain.MarketEvent{
		TokenClassID: classID,
		Type:         domain.EventPurchase,
		AccountID:    account,
		CounterID:    sellerID,
		Amount:       "1",
		Deposit:      meta.PricePerCopy,
		TimestampMs:  s.now().UnixMilli(),
	})

	return outcome.Hash, nil
}

// Transfer moves amount copies of classID to receiverID.
func (s *Service) Transfer(ctx context.Context, classID, receiverID, amount string) (string, error) {
	account, err := s.requireSigner()
	if err != nil {
		return "", err
	}
	if receiverID == "" {
		return "", invalidf("receiver is required")
	}
	if receiverID == account {
		return "", invalidf("sender and receiver cannot be the same account")
	}
	n, ok := new(big.Int).SetString(amount, 10)
	if !ok || n.Sign() <= 0 {
		return "", invalidf("transfer amount %q is not a positive integer", amount)
	}

	outcome, err := s.change(ctx, methodTransfer, map[string]interface{}{
		"receiver_id":    receiverID,
		"token_class_id": classID,
		"amount":         amount,
	}, transferGas, oneYocto)
	if err != nil {
		return "", err
	}
	return outcome.Hash, nil
}

// classMetadata fetches the on-chain metadata for one class. The second
// return reports whether the class exists.
func (s *Service) classMetadata(ctx context.Context, classID string) (*domain.NFTMetadata, bool, error) {
	res, err := s.view(ctx, methodMetadata, map[string]interface{}{
		"token_class_id": classID,
	})
	if err != nil {
		return nil, false, err
	}
	return decodeMetadata(res)
}

// view runs a read-only contract call and returns the raw result bytes.
func (s *Service) view(ctx context.Context, method string, args map[string]interface{}) ([]byte, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s args: %w", method, err)
	}

	start := s.now()
	res, err := s.rpc.CallFunction(ctx, s.contract, method, encoded)
	observability.RecordRPCCall(method, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

// change signs and submits a FunctionCall transaction. Submitted at most
// once; contract rejections come back as *ChainError.
func (s *Service) change(ctx context.Context, method string, args map[string]interface{}, gas uint64, deposit string) (*near.TxOutcome, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s args: %w", method, err)
	}

	action, err := near.FunctionCallAction(method, encoded, gas, deposit)
	if err != nil {
		return nil, fmt.Errorf("build %s action: %w", method, err)
	}

	outcome, err := s.signer.SignAndSend(ctx, s.contract, []near.Action{action})
	observability.RecordChangeCall(method, err)
	if err != nil {
		return nil, &ChainError{Method: method, Err: err}
	}
	return outcome, nil
}

func (s *Service) pin(ctx context.Context, kind string, fn func() (string, error)) (string, error) {
	start := s.now()
	url, err := fn()
	observability.RecordPin(kind, time.Since(start).Seconds(), err)
	return url, err
}

func (s *Service) requireSigner() (string, error) {
	if s.signer == nil || !s.signer.IsSignedIn() {
		return "", ErrWalletNotConnected
	}
	account := s.signer.AccountID()
	if account == "" {
		return "", ErrNoAccountSelected
	}
	return account, nil
}

// recordEvent writes to the activity log and notifies the event hook.
// Both are best-effort: the chain call already succeeded.
func (s *Service) recordEvent(ctx context.Context, e *domain.MarketEvent) {
	if s.events != nil {
		if err := s.events.Insert(ctx, e); err != nil {
			s.logger.Printf("WARN: record %s event for %s: %v", e.Type, e.TokenClassID, err)
		}
	}
	if s.onEvent != nil {
		s.onEvent(e)
	}
}

// noteSeller marks the account as a candidate seller for the class.
func (s *Service) noteSeller(ctx context.Context, classID, accountID string) {
	if s.sellers == nil {
		return
	}
	cand := &domain.SellerCandidate{AccountID: accountID, SeenAt: s.now().UnixMilli()}
	if err := s.sellers.Upsert(ctx, classID, cand); err != nil {
		s.logger.Printf("WARN: note seller %s for %s: %v", accountID, classID, err)
	}
}
