package near

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
)

// Borsh wire structures for NEAR transactions. Field order matters and
// mirrors nearcore's schema exactly.

type borshPublicKey struct {
	KeyType uint8 // 0 = ed25519
	Data    [32]uint8
}

type borshSignature struct {
	KeyType uint8 // 0 = ed25519
	Data    [64]uint8
}

type borshFunctionCall struct {
	MethodName string
	Args       []uint8
	Gas        uint64
	Deposit    big.Int // u128
}

type borshTransfer struct {
	Deposit big.Int // u128
}

// Action is one NEAR transaction action. The enum variant order is fixed
// by the chain; this client only ever populates FunctionCall and Transfer.
type Action struct {
	Enum           borsh.Enum `borsh_enum:"true"`
	CreateAccount  struct{}
	DeployContract struct{ Code []uint8 }
	FunctionCall   borshFunctionCall
	Transfer       borshTransfer
	Stake          struct {
		Stake     big.Int
		PublicKey borshPublicKey
	}
	AddKey struct {
		PublicKey borshPublicKey
		AccessKey struct {
			Nonce      uint64
			Permission borsh.Enum
		}
	}
	DeleteKey struct {
		PublicKey borshPublicKey
	}
	DeleteAccount struct {
		BeneficiaryID string
	}
}

const (
	actionFunctionCall borsh.Enum = 2
	actionTransfer     borsh.Enum = 3
)

// FunctionCallAction builds a FunctionCall action. depositYocto is a
// yoctoNEAR integer string ("0" for no deposit).
func FunctionCallAction(method string, args []byte, gas uint64, depositYocto string) (Action, error) {
	deposit, ok := new(big.Int).SetString(depositYocto, 10)
	if !ok || deposit.Sign() < 0 {
		return Action{}, fmt.Errorf("invalid deposit amount %q", depositYocto)
	}

	return Action{
		Enum: actionFunctionCall,
		FunctionCall: borshFunctionCall{
			MethodName: method,
			Args:       args,
			Gas:        gas,
			Deposit:    *deposit,
		},
	}, nil
}

// TransferAction builds a plain token transfer action.
func TransferAction(depositYocto string) (Action, error) {
	deposit, ok := new(big.Int).SetString(depositYocto, 10)
	if !ok || deposit.Sign() < 0 {
		return Action{}, fmt.Errorf("invalid deposit amount %q", depositYocto)
	}
	return Action{
		Enum:     actionTransfer,
		Transfer: borshTransfer{Deposit: *deposit},
	}, nil
}

type borshTransaction struct {
	SignerID   string
	PublicKey  borshPublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]uint8
	Actions    []Action
}

type borshSignedTransaction struct {
	Transaction borshTransaction
	Signature   borshSignature
}

// SignTransaction serializes, hashes and signs a transaction, returning the
// base64-encoded signed transaction ready for broadcast_tx_commit.
func SignTransaction(kp *KeyPair, signerID, receiverID string, nonce uint64, blockHash string, actions []Action) (string, error) {
	if kp == nil {
		return "", fmt.Errorf("nil key pair")
	}

	hashRaw, err := base58.Decode(blockHash)
	if err != nil {
		return "", fmt.Errorf("decode block hash: %w", err)
	}
	if len(hashRaw) != 32 {
		return "", fmt.Errorf("block hash is %d bytes, want 32", len(hashRaw))
	}

	tx := borshTransaction{
		SignerID:   signerID,
		PublicKey:  borshPublicKey{Data: kp.PublicKey.Data},
		Nonce:      nonce,
		ReceiverID: receiverID,
		Actions:    actions,
	}
	copy(tx.BlockHash[:], hashRaw)

	serialized, err := borsh.Serialize(tx)
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}

	digest := sha256.Sum256(serialized)
	signed := borshSignedTransaction{
		Transaction: tx,
		Signature:   borshSignature{Data: kp.Sign(digest[:])},
	}

	raw, err := borsh.Serialize(signed)
	if err != nil {
		return "", fmt.Errorf("serialize signed transaction: %w", err)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}
