// Package keyformat provides deterministic fixed-width binary encoding for
// storage keys: a one-byte namespace prefix followed by big-endian integer
// atoms. Distinct prefixes guarantee that record kinds sharing a store never
// collide.
package keyformat

import (
	"encoding/binary"
	"fmt"
)

// KeyFormat is a fixed-width key format. Atom widths are fixed at
// construction time, so every encoded key of a format has the same length.
type KeyFormat struct {
	prefix byte
	sizes  []int
	size   int
}

// New constructs a new key format with the given namespace prefix. The layout
// arguments define the atom widths by example value: a uint32 atom occupies
// 4 bytes, a uint64 atom 8 bytes.
func New(prefix byte, layout ...interface{}) *KeyFormat {
	f := &KeyFormat{prefix: prefix}
	for _, atom := range layout {
		switch atom.(type) {
		case uint32:
			f.sizes = append(f.sizes, 4)
		case uint64:
			f.sizes = append(f.sizes, 8)
		default:
			panic(fmt.Sprintf("keyformat: unsupported atom type %T", atom))
		}
	}
	for _, s := range f.sizes {
		f.size += s
	}
	return f
}

// Prefix returns the namespace prefix byte.
func (f *KeyFormat) Prefix() byte {
	return f.prefix
}

// Size returns the total encoded key size in bytes, including the prefix.
func (f *KeyFormat) Size() int {
	return 1 + f.size
}

// Encode encodes the given atom values into a key. The number of values must
// match the format's layout.
func (f *KeyFormat) Encode(values ...interface{}) []byte {
	if len(values) != len(f.sizes) {
		panic(fmt.Sprintf("keyformat: expected %d atoms, got %d", len(f.sizes), len(values)))
	}
	return f.encode(values)
}

// EncodePartial encodes only the leading atom values, producing a prefix
// usable for range seeks over the format's namespace. Calling it with no
// values yields just the namespace prefix byte.
func (f *KeyFormat) EncodePartial(values ...interface{}) []byte {
	if len(values) > len(f.sizes) {
		panic(fmt.Sprintf("keyformat: expected at most %d atoms, got %d", len(f.sizes), len(values)))
	}
	return f.encode(values)
}

func (f *KeyFormat) encode(values []interface{}) []byte {
	out := make([]byte, 1, 1+f.size)
	out[0] = f.prefix
	for i, v := range values {
		switch f.sizes[i] {
		case 4:
			out = binary.BigEndian.AppendUint32(out, v.(uint32))
		case 8:
			out = binary.BigEndian.AppendUint64(out, v.(uint64))
		}
	}
	return out
}

// Decode decodes a previously encoded key into the given atom value pointers.
// It returns false if the prefix byte or the total length does not match the
// format.
func (f *KeyFormat) Decode(data []byte, values ...interface{}) bool {
	if len(values) > len(f.sizes) {
		panic(fmt.Sprintf("keyformat: expected at most %d atoms, got %d", len(f.sizes), len(values)))
	}
	if len(data) != f.Size() || data[0] != f.prefix {
		return false
	}

	offset := 1
	for i, v := range values {
		atom := data[offset : offset+f.sizes[i]]
		offset += f.sizes[i]
		switch dst := v.(type) {
		case *uint32:
			*dst = binary.BigEndian.Uint32(atom)
		case *uint64:
			*dst = binary.BigEndian.Uint64(atom)
		default:
			panic(fmt.Sprintf("keyformat: unsupported atom type %T", v))
		}
	}
	return true
}
