// Package crypto implements the confidential storage encryption layer: a
// keyed AEAD wrapper that obfuscates storage keys and seals values into
// self-contained ciphertext envelopes.
package crypto

import (
	"context"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/paratimelabs/paratime/storage"
)

const (
	// KeySize is the size of the AEAD key in bytes.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the size of the AEAD nonce in bytes.
	NonceSize = chacha20poly1305.NonceSizeX
	// TagSize is the size of the AEAD authentication tag in bytes.
	TagSize = chacha20poly1305.Overhead
)

// encryptedKeyPrefix is prepended to every derived key so the encrypted-key
// namespace stays disjoint from other record kinds in the same store.
const encryptedKeyPrefix = 0x01

// EncryptionContext is a keyed storage encryption context for use with a
// KVStore. It holds only the AEAD key material for its lifetime and is cheap
// to recreate per access.
type EncryptionContext struct {
	aead cipher.AEAD
}

// NewEncryptionContext creates a new encryption context with the given AEAD
// key. It panics if the key is not exactly KeySize bytes, since a malformed
// key indicates a key-manager protocol bug rather than a user error.
func NewEncryptionContext(key []byte) *EncryptionContext {
	if len(key) != KeySize {
		panic(fmt.Sprintf("crypto: invalid encryption key size %d", len(key)))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		panic(err)
	}
	return &EncryptionContext{aead: aead}
}

// Get fetches and opens the encrypted entry stored under the plaintext key.
// It returns nil when the entry is absent, corrupt or fails authentication,
// since those cases are treated identically by policy.
func (e *EncryptionContext) Get(ctx context.Context, store storage.KVStore, key []byte) []byte {
	envelope := store.Get(ctx, e.DeriveEncryptedKey(key))
	return e.open(envelope)
}

// Insert seals value under the plaintext key and stores the resulting
// envelope. It returns the previously stored value, opened, if one existed.
//
// The caller supplies the nonce. Production use requires a unique,
// deterministic nonce per key: reusing one nonce across distinct values under
// the same key is a confidentiality violation.
func (e *EncryptionContext) Insert(ctx context.Context, store storage.KVStore, key, value, nonce []byte) []byte {
	if len(nonce) != NonceSize {
		panic(fmt.Sprintf("crypto: invalid nonce size %d", len(nonce)))
	}

	// Envelope layout: ciphertext || tag || nonce.
	envelope := e.aead.Seal(nil, nonce, value, nil)
	envelope = append(envelope, nonce...)

	previous := store.Insert(ctx, e.DeriveEncryptedKey(key), envelope)
	return e.open(previous)
}

// Remove deletes the encrypted entry stored under the plaintext key and
// returns the previously stored value, opened, if one existed.
func (e *EncryptionContext) Remove(ctx context.Context, store storage.KVStore, key []byte) []byte {
	previous := store.Remove(ctx, e.DeriveEncryptedKey(key))
	return e.open(previous)
}

// DeriveEncryptedKey deterministically derives the obfuscated storage key for
// the given plaintext key. This transform only hides the key, it does not
// protect the value; value protection comes from the sealed envelope.
func (e *EncryptionContext) DeriveEncryptedKey(key []byte) []byte {
	// The plan is eventually to use a lighter weight transform for the key
	// instead of a full fledged AEAD call with an all-zero nonce.
	var nonce [NonceSize]byte
	derived := make([]byte, 1, 1+len(key)+TagSize)
	derived[0] = encryptedKeyPrefix
	return e.aead.Seal(derived, nonce[:], key, nil)
}

// open validates and opens a stored envelope. Any short, corrupt or
// unauthenticated envelope yields nil; raw cryptographic errors never reach
// the caller.
func (e *EncryptionContext) open(envelope []byte) []byte {
	if len(envelope) < TagSize+NonceSize {
		return nil
	}

	nonceOffset := len(envelope) - NonceSize
	nonce := envelope[nonceOffset:]
	ciphertext := envelope[:nonceOffset]

	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil
	}
	return plaintext
}
