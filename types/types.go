package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// HashSize is the size of a Hash in bytes.
const HashSize = 32

// Hash is a 32-byte SHA3-256 digest.
type Hash [HashSize]byte

// HashBytes returns the digest of the given byte slices, in order.
func HashBytes(data ...[]byte) Hash {
	h := sha3.New256()
	for _, d := range data {
		_, _ = h.Write(d)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes the hash from a hex string.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cannot unmarshal %s into Hash, expected hex string", data)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("cannot unmarshal %s into Hash, malformed hex", data)
	}
	if len(raw) != HashSize {
		return fmt.Errorf("cannot unmarshal %s into Hash, expected %d bytes", data, HashSize)
	}
	copy(h[:], raw)
	return nil
}

// Epoch is a host-defined consensus epoch. Epoch transitions are recorded,
// not interpreted, by the runtime core.
type Epoch uint64

// Tag is a key/value pair emitted by a call for indexing by the host.
type Tag struct {
	Key   []byte `json:"key"`
	Value []byte `json:"value"`
}

// Tags is a set of tags.
type Tags []Tag
