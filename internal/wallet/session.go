// Package wallet tracks the signed-in account and signs transactions with
// a locally stored key. It is the headless counterpart of a browser wallet
// connection: SignIn corresponds to the wallet-authorization redirect
// completing, and any state before that is treated as signed out.
package wallet

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"sync"

	"near-sft-market/internal/near"
)

// Session holds wallet state for one account. Created at process start,
// torn down on SignOut; all methods are safe for concurrent use.
type Session struct {
	rpc      near.RPCClient
	credPath string
	logger   *log.Logger

	mu        sync.Mutex
	accountID string
	keyPair   *near.KeyPair
	signedIn  bool
	balance   string
}

// Options configures a Session.
type Options struct {
	RPC             near.RPCClient
	CredentialsPath string
	Logger          *log.Logger
}

// NewSession creates a signed-out session.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		rpc:      opts.RPC,
		credPath: opts.CredentialsPath,
		logger:   logger,
		balance:  "0",
	}
}

// SignIn loads the credentials file and verifies the key is registered
// on-chain. On any failure the session stays signed out; the caller may
// keep running unauthenticated.
func (s *Session) SignIn(ctx context.Context) error {
	accountID, kp, err := LoadCredentials(s.credPath)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	// The access key must exist on-chain, otherwise the wallet never
	// authorized this key and transactions would be rejected anyway.
	if _, err := s.rpc.ViewAccessKey(ctx, accountID, kp.PublicKey.String()); err != nil {
		return fmt.Errorf("sign in: verify access key: %w", err)
	}

	s.mu.Lock()
	s.accountID = accountID
	s.keyPair = kp
	s.signedIn = true
	s.mu.Unlock()

	s.AccountBalance(ctx)
	return nil
}

// SignOut clears key material and session state. Safe to call when
// already signed out.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accountID = ""
	s.keyPair = nil
	s.signedIn = false
	s.balance = "0"
}

// IsSignedIn reports whether SignIn completed successfully.
func (s *Session) IsSignedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signedIn
}

// AccountID returns the active account, or "" when signed out.
func (s *Session) AccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID
}

// Balance returns the last cached available balance in yoctoNEAR.
func (s *Session) Balance() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// AccountBalance refreshes and returns the available balance (total minus
// locked) in yoctoNEAR. Failures never propagate: the balance resets to
// "0" and a warning is logged so list views keep rendering.
func (s *Session) AccountBalance(ctx context.Context) string {
	s.mu.Lock()
	accountID := s.accountID
	signedIn := s.signedIn
	s.mu.Unlock()

	if !signedIn {
		return "0"
	}

	acct, err := s.rpc.ViewAccount(ctx, accountID)
	if err != nil {
		s.logger.Printf("WARN: fetch balance for %s: %v", accountID, err)
		s.setBalance("0")
		return "0"
	}

	available := availableBalance(acct.Amount, acct.Locked)
	s.setBalance(available)
	return available
}

func (s *Session) setBalance(b string) {
	s.mu.Lock()
	s.balance = b
	s.mu.Unlock()
}

// availableBalance computes amount - locked as decimal strings, clamping
// at zero on any malformed input.
func availableBalance(amount, locked string) string {
	total, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return "0"
	}
	staked, ok := new(big.Int).SetString(locked, 10)
	if !ok {
		staked = big.NewInt(0)
	}

	avail := new(big.Int).Sub(total, staked)
	if avail.Sign() < 0 {
		return "0"
	}
	return avail.String()
}

// SignAndSend builds, signs and broadcasts a transaction to receiverID
// with the given actions. Fails when the session is signed out.
func (s *Session) SignAndSend(ctx context.Context, receiverID string, actions []near.Action) (*near.TxOutcome, error) {
	s.mu.Lock()
	accountID := s.accountID
	kp := s.keyPair
	signedIn := s.signedIn
	s.mu.Unlock()

	if !signedIn || kp == nil {
		return nil, fmt.Errorf("session is not signed in")
	}

	key, err := s.rpc.ViewAccessKey(ctx, accountID, kp.PublicKey.String())
	if err != nil {
		return nil, fmt.Errorf("fetch access key: %w", err)
	}

	blockHash, err := s.rpc.LatestBlockHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch block hash: %w", err)
	}

	signedTx, err := near.SignTransaction(kp, accountID, receiverID, key.Nonce+1, blockHash, actions)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	return s.rpc.SendTransaction(ctx, signedTx)
}
