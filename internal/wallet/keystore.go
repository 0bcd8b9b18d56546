package wallet

import (
	"encoding/json"
	"fmt"
	"os"

	"near-sft-market/internal/near"
)

// Credentials is the on-disk key layout written by NEAR CLI
// (~/.near-credentials/<network>/<account>.json).
type Credentials struct {
	AccountID  string `json:"account_id"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// LoadCredentials reads and validates a credentials file, returning the
// account ID and its parsed signing key.
func LoadCredentials(path string) (string, *near.KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if creds.AccountID == "" {
		return "", nil, fmt.Errorf("credentials file missing account_id")
	}

	kp, err := near.ParseKeyPair(creds.PrivateKey)
	if err != nil {
		return "", nil, fmt.Errorf("parse private key: %w", err)
	}

	// When the file carries a public key, it must agree with the
	// private key's derived one.
	if creds.PublicKey != "" && creds.PublicKey != kp.PublicKey.String() {
		return "", nil, fmt.Errorf("credentials public key %s does not match private key", creds.PublicKey)
	}

	return creds.AccountID, kp, nil
}
