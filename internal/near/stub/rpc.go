package stub

import (
	"context"
	"errors"
	"sync"

	"near-sft-market/internal/near"
)

// ErrNotFound is returned when the stub has no scripted data for a request.
var ErrNotFound = errors.New("not found")

// ViewCall records one CallFunction invocation for assertions.
type ViewCall struct {
	AccountID string
	Method    string
	Args      []byte
}

// RPCClient implements near.RPCClient for testing. View results are
// scripted per method name, or dynamically through ViewFunc.
type RPCClient struct {
	mu sync.Mutex

	// ViewFunc, when set, answers CallFunction before the static maps.
	ViewFunc func(accountID, method string, args []byte) ([]byte, error)

	ViewResults map[string][]byte // method name -> JSON result
	ViewErrs    map[string]error  // method name -> forced error
	Accounts    map[string]*near.AccountView
	AccessKeys  map[string]*near.AccessKeyView // account ID -> key view
	BlockHash   string

	Outcome *near.TxOutcome
	SendErr error

	ViewCalls []ViewCall
	SentTxs   []string
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		ViewResults: make(map[string][]byte),
		ViewErrs:    make(map[string]error),
		Accounts:    make(map[string]*near.AccountView),
		AccessKeys:  make(map[string]*near.AccessKeyView),
		BlockHash:   "11111111111111111111111111111111",
		Outcome:     &near.TxOutcome{Hash: "stubtxhash"},
	}
}

// SetView scripts a static JSON result for a view method.
func (c *RPCClient) SetView(method string, result []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ViewResults[method] = result
}

// SetViewErr forces an error for a view method.
func (c *RPCClient) SetViewErr(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ViewErrs[method] = err
}

// CallFunction answers from ViewFunc or the scripted maps.
func (c *RPCClient) CallFunction(_ context.Context, accountID, method string, args []byte) (*near.CallResult, error) {
	c.mu.Lock()
	c.ViewCalls = append(c.ViewCalls, ViewCall{AccountID: accountID, Method: method, Args: args})
	viewFunc := c.ViewFunc
	err, hasErr := c.ViewErrs[method]
	result, hasResult := c.ViewResults[method]
	c.mu.Unlock()

	if viewFunc != nil {
		raw, err := viewFunc(accountID, method, args)
		if err != nil {
			return nil, err
		}
		return &near.CallResult{Result: raw}, nil
	}
	if hasErr {
		return nil, err
	}
	if !hasResult {
		return nil, ErrNotFound
	}
	return &near.CallResult{Result: result}, nil
}

// ViewAccount answers from the Accounts map.
func (c *RPCClient) ViewAccount(_ context.Context, accountID string) (*near.AccountView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	acct, ok := c.Accounts[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	view := *acct
	return &view, nil
}

// ViewAccessKey answers from the AccessKeys map, keyed by account ID.
func (c *RPCClient) ViewAccessKey(_ context.Context, accountID, _ string) (*near.AccessKeyView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, ok := c.AccessKeys[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	view := *key
	return &view, nil
}

// LatestBlockHash returns the scripted block hash.
func (c *RPCClient) LatestBlockHash(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.BlockHash, nil
}

// SendTransaction records the transaction and returns the scripted outcome.
func (c *RPCClient) SendTransaction(_ context.Context, signedTxBase64 string) (*near.TxOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.SentTxs = append(c.SentTxs, signedTxBase64)
	if c.SendErr != nil {
		return nil, c.SendErr
	}
	outcome := *c.Outcome
	return &outcome, nil
}

// Verify interface compliance at compile time.
var _ near.RPCClient = (*RPCClient)(nil)
