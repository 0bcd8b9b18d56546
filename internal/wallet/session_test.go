package wallet

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mr-tron/base58"

	"near-sft-market/internal/near"
	"near-sft-market/internal/near/stub"
)

// writeCredentials drops a NEAR CLI style credentials file into a temp dir
// and returns its path plus the public key string it carries.
func writeCredentials(t *testing.T, accountID string) (string, string) {
	t.Helper()

	seed := bytes.Repeat([]byte{9}, ed25519.SeedSize)
	priv := ed25519.NewKeyFromSeed(seed)
	pubStr := "ed25519:" + base58.Encode(priv.Public().(ed25519.PublicKey))

	creds := Credentials{
		AccountID:  accountID,
		PublicKey:  pubStr,
		PrivateKey: "ed25519:" + base58.Encode(priv),
	}
	data, err := json.Marshal(creds)
	if err != nil {
		t.Fatalf("marshal credentials: %v", err)
	}

	path := filepath.Join(t.TempDir(), accountID+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}
	return path, pubStr
}

func TestLoadCredentials(t *testing.T) {
	path, pubStr := writeCredentials(t, "alice.testnet")

	accountID, kp, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if accountID != "alice.testnet" {
		t.Errorf("accountID = %s, want alice.testnet", accountID)
	}
	if kp.PublicKey.String() != pubStr {
		t.Errorf("public key = %s, want %s", kp.PublicKey.String(), pubStr)
	}
}

func TestLoadCredentials_PublicKeyMismatch(t *testing.T) {
	seed := bytes.Repeat([]byte{9}, ed25519.SeedSize)
	priv := ed25519.NewKeyFromSeed(seed)

	other := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{3}, ed25519.SeedSize))
	creds := Credentials{
		AccountID:  "alice.testnet",
		PublicKey:  "ed25519:" + base58.Encode(other.Public().(ed25519.PublicKey)),
		PrivateKey: "ed25519:" + base58.Encode(priv),
	}
	data, _ := json.Marshal(creds)

	path := filepath.Join(t.TempDir(), "alice.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}

	if _, _, err := LoadCredentials(path); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestSession_SignIn(t *testing.T) {
	path, _ := writeCredentials(t, "alice.testnet")

	rpc := stub.NewRPCClient()
	rpc.AccessKeys["alice.testnet"] = &near.AccessKeyView{Nonce: 41, FullAccess: true}
	rpc.Accounts["alice.testnet"] = &near.AccountView{
		Amount: "5000000000000000000000000",
		Locked: "0",
	}

	sess := NewSession(Options{RPC: rpc, CredentialsPath: path})

	if sess.IsSignedIn() {
		t.Fatal("new session should be signed out")
	}
	if err := sess.SignIn(context.Background()); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !sess.IsSignedIn() {
		t.Error("session should be signed in")
	}
	if sess.AccountID() != "alice.testnet" {
		t.Errorf("AccountID = %s", sess.AccountID())
	}
	if sess.Balance() != "5000000000000000000000000" {
		t.Errorf("Balance = %s", sess.Balance())
	}
}

func TestSession_SignIn_UnregisteredKey(t *testing.T) {
	path, _ := writeCredentials(t, "alice.testnet")

	// No access key scripted: the chain does not know this key.
	rpc := stub.NewRPCClient()

	sess := NewSession(Options{RPC: rpc, CredentialsPath: path})
	if err := sess.SignIn(context.Background()); err == nil {
		t.Fatal("expected SignIn to fail for unregistered key")
	}
	if sess.IsSignedIn() {
		t.Error("session must stay signed out after failed SignIn")
	}
}

func TestSession_SignOut(t *testing.T) {
	path, _ := writeCredentials(t, "alice.testnet")

	rpc := stub.NewRPCClient()
	rpc.AccessKeys["alice.testnet"] = &near.AccessKeyView{Nonce: 1}
	rpc.Accounts["alice.testnet"] = &near.AccountView{Amount: "10", Locked: "0"}

	sess := NewSession(Options{RPC: rpc, CredentialsPath: path})

	// SignOut before SignIn must be harmless.
	sess.SignOut()

	if err := sess.SignIn(context.Background()); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	sess.SignOut()

	if sess.IsSignedIn() {
		t.Error("session should be signed out")
	}
	if sess.AccountID() != "" {
		t.Errorf("AccountID = %q, want empty", sess.AccountID())
	}
	if sess.Balance() != "0" {
		t.Errorf("Balance = %s, want 0", sess.Balance())
	}
}

func TestSession_AccountBalance_SubtractsLocked(t *testing.T) {
	path, _ := writeCredentials(t, "alice.testnet")

	rpc := stub.NewRPCClient()
	rpc.AccessKeys["alice.testnet"] = &near.AccessKeyView{Nonce: 1}
	rpc.Accounts["alice.testnet"] = &near.AccountView{
		Amount: "3000000000000000000000000",
		Locked: "1000000000000000000000000",
	}

	sess := NewSession(Options{RPC: rpc, CredentialsPath: path})
	if err := sess.SignIn(context.Background()); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	got := sess.AccountBalance(context.Background())
	if got != "2000000000000000000000000" {
		t.Errorf("AccountBalance = %s, want 2000000000000000000000000", got)
	}
}

func TestSession_AccountBalance_FailureResetsToZero(t *testing.T) {
	path, _ := writeCredentials(t, "alice.testnet")

	rpc := stub.NewRPCClient()
	rpc.AccessKeys["alice.testnet"] = &near.AccessKeyView{Nonce: 1}
	rpc.Accounts["alice.testnet"] = &near.AccountView{Amount: "99", Locked: "0"}

	var buf bytes.Buffer
	sess := NewSession(Options{
		RPC:             rpc,
		CredentialsPath: path,
		Logger:          log.New(&buf, "[wallet] ", 0),
	})
	if err := sess.SignIn(context.Background()); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.Balance() != "99" {
		t.Fatalf("Balance = %s, want 99", sess.Balance())
	}

	// Drop the account so the next lookup fails.
	delete(rpc.Accounts, "alice.testnet")

	if got := sess.AccountBalance(context.Background()); got != "0" {
		t.Errorf("AccountBalance after failure = %s, want 0", got)
	}
	if sess.Balance() != "0" {
		t.Errorf("cached balance = %s, want 0", sess.Balance())
	}
	if !strings.Contains(buf.String(), "WARN") {
		t.Error("expected a logged warning on balance failure")
	}
}

func TestSession_SignAndSend(t *testing.T) {
	path, _ := writeCredentials(t, "alice.testnet")

	rpc := stub.NewRPCClient()
	rpc.AccessKeys["alice.testnet"] = &near.AccessKeyView{Nonce: 7}
	rpc.Accounts["alice.testnet"] = &near.AccountView{Amount: "1", Locked: "0"}
	rpc.Outcome = &near.TxOutcome{Hash: "txhash123"}

	sess := NewSession(Options{RPC: rpc, CredentialsPath: path})
	if err := sess.SignIn(context.Background()); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	action, err := near.FunctionCallAction("sft_mint", []byte(`{}`), 100_000_000_000_000, "0")
	if err != nil {
		t.Fatalf("FunctionCallAction: %v", err)
	}

	outcome, err := sess.SignAndSend(context.Background(), "market.testnet", []near.Action{action})
	if err != nil {
		t.Fatalf("SignAndSend: %v", err)
	}
	if outcome.Hash != "txhash123" {
		t.Errorf("outcome hash = %s", outcome.Hash)
	}
	if len(rpc.SentTxs) != 1 {
		t.Fatalf("sent %d transactions, want 1", len(rpc.SentTxs))
	}
}

func TestSession_SignAndSend_SignedOut(t *testing.T) {
	rpc := stub.NewRPCClient()
	sess := NewSession(Options{RPC: rpc, CredentialsPath: "/nonexistent"})

	if _, err := sess.SignAndSend(context.Background(), "market.testnet", nil); err == nil {
		t.Fatal("expected error when signed out")
	}
	if len(rpc.SentTxs) != 0 {
		t.Error("no transaction should have been sent")
	}
}
