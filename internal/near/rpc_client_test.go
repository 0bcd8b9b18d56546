package near

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_CallFunction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "query" {
			t.Errorf("expected method query, got %s", req.Method)
		}

		params, ok := req.Params.(map[string]interface{})
		if !ok {
			t.Fatalf("expected object params, got %T", req.Params)
		}
		if params["request_type"] != "call_function" {
			t.Errorf("expected request_type call_function, got %v", params["request_type"])
		}
		if params["account_id"] != "market.testnet" {
			t.Errorf("expected account_id market.testnet, got %v", params["account_id"])
		}
		if params["method_name"] != "sft_balance_of" {
			t.Errorf("expected method_name sft_balance_of, got %v", params["method_name"])
		}

		argsRaw, err := base64.StdEncoding.DecodeString(params["args_base64"].(string))
		if err != nil {
			t.Fatalf("decode args_base64: %v", err)
		}
		if string(argsRaw) != `{"account_id":"alice.testnet"}` {
			t.Errorf("unexpected args: %s", argsRaw)
		}

		// Function results come back as an array of byte values.
		payload := `"5"`
		result := make([]int, len(payload))
		for i := range payload {
			result[i] = int(payload[i])
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"result":       result,
				"logs":         []string{},
				"block_height": int64(187339364),
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	res, err := client.CallFunction(ctx, "market.testnet", "sft_balance_of", []byte(`{"account_id":"alice.testnet"}`))
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}

	if string(res.Result) != `"5"` {
		t.Errorf("expected result %q, got %q", `"5"`, res.Result)
	}
	if res.BlockHeight != 187339364 {
		t.Errorf("expected block height 187339364, got %d", res.BlockHeight)
	}
}

func TestHTTPClient_ViewAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"amount":        "50000000000000000000000000",
				"locked":        "0",
				"storage_usage": int64(182),
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	acct, err := client.ViewAccount(context.Background(), "alice.testnet")
	if err != nil {
		t.Fatalf("ViewAccount: %v", err)
	}

	if acct.Amount != "50000000000000000000000000" {
		t.Errorf("expected amount 50 NEAR in yocto, got %s", acct.Amount)
	}
	if acct.StorageUsage != 182 {
		t.Errorf("expected storage usage 182, got %d", acct.StorageUsage)
	}
}

func TestHTTPClient_ViewAccessKey_Unknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		// Unknown keys are reported inside the result body.
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"error": "access key ed25519:abc does not exist while viewing",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	_, err := client.ViewAccessKey(context.Background(), "alice.testnet", "ed25519:abc")
	if err == nil {
		t.Fatal("expected error for unknown access key")
	}
}

func TestHTTPClient_SendTransaction_Failure(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "broadcast_tx_commit" {
			t.Errorf("expected method broadcast_tx_commit, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"status": map[string]interface{}{
					"Failure": map[string]interface{}{
						"ActionError": map[string]interface{}{
							"index": 0,
							"kind":  map[string]interface{}{"FunctionCallError": "Smart contract panicked: Buyer and seller cannot be the same"},
						},
					},
				},
				"transaction": map[string]interface{}{"hash": "9XYZ"},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	_, err := client.SendTransaction(context.Background(), "c2lnbmVk")
	if err == nil {
		t.Fatal("expected error for failed transaction")
	}

	var txErr *TxError
	if !errors.As(err, &txErr) {
		t.Fatalf("expected TxError, got %T: %v", err, err)
	}

	if calls.Load() != 1 {
		t.Errorf("broadcast must not be retried, got %d calls", calls.Load())
	}
}

func TestHTTPClient_SendTransaction_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"status":      map[string]interface{}{"SuccessValue": base64.StdEncoding.EncodeToString([]byte("ok"))},
				"transaction": map[string]interface{}{"hash": "9XYZ"},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)

	outcome, err := client.SendTransaction(context.Background(), "c2lnbmVk")
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if outcome.Hash != "9XYZ" {
		t.Errorf("expected hash 9XYZ, got %s", outcome.Hash)
	}
	if string(outcome.SuccessValue) != "ok" {
		t.Errorf("expected success value ok, got %q", outcome.SuccessValue)
	}
}

func TestHTTPClient_RetriesViewOnServerError(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"header": map[string]interface{}{"hash": "BlockHash111", "height": int64(42)},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))

	hash, err := client.LatestBlockHash(context.Background())
	if err != nil {
		t.Fatalf("LatestBlockHash: %v", err)
	}
	if hash != "BlockHash111" {
		t.Errorf("expected BlockHash111, got %s", hash)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32000, "message": "Server error"},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))

	_, err := client.ViewAccount(context.Background(), "alice.testnet")
	if err == nil {
		t.Fatal("expected RPC error")
	}
	if calls.Load() != 1 {
		t.Errorf("RPC errors must not be retried, got %d calls", calls.Load())
	}
}
