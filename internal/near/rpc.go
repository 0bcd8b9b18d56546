package near

import "context"

// RPCClient defines the NEAR JSON-RPC interface used by this service.
type RPCClient interface {
	// CallFunction executes a read-only contract view method.
	CallFunction(ctx context.Context, accountID, method string, args []byte) (*CallResult, error)

	// ViewAccount retrieves basic account state (balance, storage).
	ViewAccount(ctx context.Context, accountID string) (*AccountView, error)

	// ViewAccessKey retrieves the access key for (account, public key).
	ViewAccessKey(ctx context.Context, accountID, publicKey string) (*AccessKeyView, error)

	// LatestBlockHash retrieves the hash of the latest final block.
	LatestBlockHash(ctx context.Context) (string, error)

	// SendTransaction broadcasts a base64-encoded signed transaction and
	// waits for its execution outcome.
	SendTransaction(ctx context.Context, signedTxBase64 string) (*TxOutcome, error)
}

// CallResult is the outcome of a contract view call.
type CallResult struct {
	Result      []byte // raw return value, usually JSON
	Logs        []string
	BlockHeight int64
}

// AccountView is basic on-chain account state.
type AccountView struct {
	Amount       string // total balance in yoctoNEAR
	Locked       string // staked balance in yoctoNEAR
	StorageUsage int64
}

// AccessKeyView describes one access key of an account.
type AccessKeyView struct {
	Nonce      uint64
	BlockHash  string
	FullAccess bool
}

// TxOutcome is the result of a broadcast transaction.
type TxOutcome struct {
	Hash         string // transaction hash, base58
	SuccessValue []byte // decoded return value on success
}
