package solana

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// PublicKeyLength is the byte length of an ed25519 public key.
const PublicKeyLength = ed25519.PublicKeySize

// SystemProgramID is the native program that owns plain lamport accounts and
// services account creation, allocation, assignment and transfers.
var SystemProgramID = MustPublicKeyFromBase58("11111111111111111111111111111111")

// PublicKeyFromBase58 decodes a base58 encoded public key.
func PublicKeyFromBase58(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 value")
	}
	if len(decoded) != PublicKeyLength {
		return nil, errors.Errorf("invalid public key length: %d", len(decoded))
	}
	return decoded, nil
}

// MustPublicKeyFromBase58 is PublicKeyFromBase58 for hardcoded keys.
func MustPublicKeyFromBase58(value string) ed25519.PublicKey {
	decoded, err := PublicKeyFromBase58(value)
	if err != nil {
		panic(err)
	}
	return decoded
}

// Base58 returns the base58 text form of a public key.
func Base58(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}
