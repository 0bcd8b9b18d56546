package near

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ed25519Prefix is the curve prefix NEAR uses for key and signature strings.
const ed25519Prefix = "ed25519:"

// PublicKey is an ed25519 public key in NEAR's wire representation.
type PublicKey struct {
	Data [32]byte
}

// String formats the key as "ed25519:<base58>".
func (pk PublicKey) String() string {
	return ed25519Prefix + base58.Encode(pk.Data[:])
}

// ParsePublicKey parses "ed25519:<base58>" and verifies the bytes decode
// to a canonical point on the curve.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey

	raw, err := decodeKeyBody(s)
	if err != nil {
		return pk, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return pk, fmt.Errorf("public key is %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return pk, fmt.Errorf("public key is not a valid curve point: %w", err)
	}

	copy(pk.Data[:], raw)
	return pk, nil
}

// KeyPair is a signing key loaded from a credentials file.
type KeyPair struct {
	PublicKey  PublicKey
	privateKey ed25519.PrivateKey
}

// ParseKeyPair parses "ed25519:<base58>" holding the 64-byte expanded
// private key (seed followed by public key), the layout NEAR CLI writes.
func ParseKeyPair(s string) (*KeyPair, error) {
	raw, err := decodeKeyBody(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key is %d bytes, want %d", len(raw), ed25519.PrivateKeySize)
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)

	// The embedded public half must match the derived one, otherwise the
	// credentials file is corrupt.
	if !bytes.Equal(raw[ed25519.SeedSize:], pub) {
		return nil, fmt.Errorf("private key public half does not match derived public key")
	}

	var pk PublicKey
	copy(pk.Data[:], pub)
	return &KeyPair{PublicKey: pk, privateKey: priv}, nil
}

// Sign signs msg with the private key.
func (kp *KeyPair) Sign(msg []byte) [64]byte {
	var sig [64]byte
	copy(sig[:], ed25519.Sign(kp.privateKey, msg))
	return sig
}

func decodeKeyBody(s string) ([]byte, error) {
	if !strings.HasPrefix(s, ed25519Prefix) {
		return nil, fmt.Errorf("key %q missing %q prefix", s, ed25519Prefix)
	}
	raw, err := base58.Decode(strings.TrimPrefix(s, ed25519Prefix))
	if err != nil {
		return nil, fmt.Errorf("decode base58 key: %w", err)
	}
	return raw, nil
}
