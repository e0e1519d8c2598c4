// Package keymanager defines the call contract of the external key-manager
// collaborator, which supplies per-key-space encryption key material.
package keymanager

import (
	"context"

	"golang.org/x/crypto/sha3"
)

// KeyPairIDSize is the size of a KeyPairID in bytes.
const KeyPairIDSize = 32

// KeyPairID identifies a key pair held by the key manager. It is derived as
// a digest of the plaintext storage key being protected.
type KeyPairID [KeyPairIDSize]byte

// KeyPairIDFromKey derives the key pair ID for the given plaintext key.
func KeyPairIDFromKey(key []byte) KeyPairID {
	return KeyPairID(sha3.Sum256(key))
}

// KeyPair is the key material returned by the key manager for one key pair.
type KeyPair struct {
	// StateKey is the 256-bit storage encryption key.
	StateKey []byte `json:"state_key"`
}

// Client talks to the key manager. Implementations may block on a network
// round trip; they must honor cancellation of the passed context.
type Client interface {
	// GetOrCreateKeys returns the key material for the given key pair,
	// generating it if it does not exist yet.
	GetOrCreateKeys(ctx context.Context, id KeyPairID) (*KeyPair, error)
}
