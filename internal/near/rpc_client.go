package near

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
//
// View calls are retried with exponential backoff; transaction broadcasts
// are sent exactly once so the caller keeps at-most-once semantics.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for view calls.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new NEAR RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
// NEAR accepts named parameters as an object or positional as an array.
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("RPC error %d: %s: %s", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with up to maxAttempts attempts and
// exponential backoff between them.
func (c *HTTPClient) call(ctx context.Context, method string, params interface{}, maxAttempts int, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// queryParams is the shape of NEAR "query" method parameters.
type queryParams struct {
	RequestType string `json:"request_type"`
	Finality    string `json:"finality"`
	AccountID   string `json:"account_id,omitempty"`
	MethodName  string `json:"method_name,omitempty"`
	ArgsBase64  string `json:"args_base64,omitempty"`
	PublicKey   string `json:"public_key,omitempty"`
}

// CallFunction executes a read-only contract view method. Arguments are
// JSON, base64-encoded on the wire as the query API requires.
func (c *HTTPClient) CallFunction(ctx context.Context, accountID, method string, args []byte) (*CallResult, error) {
	if args == nil {
		args = []byte("{}")
	}

	params := queryParams{
		RequestType: "call_function",
		Finality:    "final",
		AccountID:   accountID,
		MethodName:  method,
		ArgsBase64:  base64.StdEncoding.EncodeToString(args),
	}

	var result callFunctionResult
	if err := c.call(ctx, "query", params, c.maxRetries+1, &result); err != nil {
		return nil, err
	}

	// The query API returns function results as an array of byte values.
	raw := make([]byte, len(result.Result))
	for i, b := range result.Result {
		raw[i] = byte(b)
	}

	return &CallResult{
		Result:      raw,
		Logs:        result.Logs,
		BlockHeight: result.BlockHeight,
	}, nil
}

// callFunctionResult is the raw RPC response for call_function queries.
type callFunctionResult struct {
	Result      []int    `json:"result"`
	Logs        []string `json:"logs"`
	BlockHeight int64    `json:"block_height"`
}

// ViewAccount retrieves basic account state.
func (c *HTTPClient) ViewAccount(ctx context.Context, accountID string) (*AccountView, error) {
	params := queryParams{
		RequestType: "view_account",
		Finality:    "final",
		AccountID:   accountID,
	}

	var result viewAccountResult
	if err := c.call(ctx, "query", params, c.maxRetries+1, &result); err != nil {
		return nil, err
	}

	return &AccountView{
		Amount:       result.Amount,
		Locked:       result.Locked,
		StorageUsage: result.StorageUsage,
	}, nil
}

// viewAccountResult is the raw RPC response for view_account queries.
type viewAccountResult struct {
	Amount       string `json:"amount"`
	Locked       string `json:"locked"`
	StorageUsage int64  `json:"storage_usage"`
}

// ViewAccessKey retrieves the access key of (account, public key).
// Needed to learn the nonce before building a transaction.
func (c *HTTPClient) ViewAccessKey(ctx context.Context, accountID, publicKey string) (*AccessKeyView, error) {
	params := queryParams{
		RequestType: "view_access_key",
		Finality:    "final",
		AccountID:   accountID,
		PublicKey:   publicKey,
	}

	var result viewAccessKeyResult
	if err := c.call(ctx, "query", params, c.maxRetries+1, &result); err != nil {
		return nil, err
	}

	// Older nodes report unknown keys inside the result body instead of
	// as a JSON-RPC error.
	if result.Error != "" {
		return nil, fmt.Errorf("view access key: %s", result.Error)
	}

	view := &AccessKeyView{
		Nonce:     result.Nonce,
		BlockHash: result.BlockHash,
	}
	if perm, ok := result.Permission.(string); ok && perm == "FullAccess" {
		view.FullAccess = true
	}
	return view, nil
}

// viewAccessKeyResult is the raw RPC response for view_access_key queries.
type viewAccessKeyResult struct {
	Nonce      uint64      `json:"nonce"`
	Permission interface{} `json:"permission"`
	BlockHash  string      `json:"block_hash"`
	Error      string      `json:"error"`
}

// LatestBlockHash retrieves the base58 hash of the latest final block.
func (c *HTTPClient) LatestBlockHash(ctx context.Context) (string, error) {
	params := map[string]interface{}{"finality": "final"}

	var result blockResult
	if err := c.call(ctx, "block", params, c.maxRetries+1, &result); err != nil {
		return "", err
	}
	if result.Header.Hash == "" {
		return "", fmt.Errorf("block response missing header hash")
	}
	return result.Header.Hash, nil
}

// blockResult is the raw RPC response for the block method.
type blockResult struct {
	Header struct {
		Hash   string `json:"hash"`
		Height int64  `json:"height"`
	} `json:"header"`
}

// SendTransaction broadcasts a signed transaction and waits for the
// execution outcome. Never retried: resubmitting a transaction with the
// same nonce fails, and callers own the retry decision anyway.
func (c *HTTPClient) SendTransaction(ctx context.Context, signedTxBase64 string) (*TxOutcome, error) {
	params := []interface{}{signedTxBase64}

	var result broadcastResult
	if err := c.call(ctx, "broadcast_tx_commit", params, 1, &result); err != nil {
		return nil, err
	}

	if len(result.Status.Failure) > 0 {
		return nil, &TxError{Raw: result.Status.Failure}
	}

	outcome := &TxOutcome{Hash: result.Transaction.Hash}
	if result.Status.SuccessValue != nil {
		decoded, err := base64.StdEncoding.DecodeString(*result.Status.SuccessValue)
		if err != nil {
			return nil, fmt.Errorf("decode success value: %w", err)
		}
		outcome.SuccessValue = decoded
	}
	return outcome, nil
}

// broadcastResult is the raw RPC response for broadcast_tx_commit.
type broadcastResult struct {
	Status struct {
		SuccessValue *string         `json:"SuccessValue"`
		Failure      json.RawMessage `json:"Failure"`
	} `json:"status"`
	Transaction struct {
		Hash string `json:"hash"`
	} `json:"transaction"`
}

// TxError is a transaction that executed and failed on-chain.
type TxError struct {
	Raw json.RawMessage
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction failed: %s", string(e.Raw))
}

// Verify interface compliance at compile time.
var _ RPCClient = (*HTTPClient)(nil)
