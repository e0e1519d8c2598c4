package keymanager

import (
	"context"
	"errors"

	"golang.org/x/crypto/sha3"
)

const stateKeyLabel = "paratime/keymanager: state key"

// LocalClient derives key material deterministically from a static root seed
// instead of talking to a remote key manager. For development and tests only:
// anyone holding the seed can derive every state key.
type LocalClient struct {
	seed []byte
}

var _ Client = (*LocalClient)(nil)

// NewLocalClient creates a new local key manager client with the given root
// seed.
func NewLocalClient(seed []byte) (*LocalClient, error) {
	if len(seed) == 0 {
		return nil, errors.New("keymanager: empty root seed")
	}
	return &LocalClient{seed: seed}, nil
}

// GetOrCreateKeys implements Client.
func (c *LocalClient) GetOrCreateKeys(ctx context.Context, id KeyPairID) (*KeyPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := sha3.New256()
	_, _ = h.Write([]byte(stateKeyLabel))
	_, _ = h.Write(c.seed)
	_, _ = h.Write(id[:])

	return &KeyPair{StateKey: h.Sum(nil)}, nil
}
