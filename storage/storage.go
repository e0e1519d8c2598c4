// Package storage provides the runtime's view of the round-scoped key/value
// store, backed by a cometbft-db database.
package storage

import (
	"context"
	"encoding/binary"

	dbm "github.com/cometbft/cometbft-db"
	"golang.org/x/crypto/sha3"

	"github.com/paratimelabs/paratime/types"
)

// KVStore is a mutable key/value store scoped to the in-flight batch. Calls
// borrow it through the batch context and must not retain it past the call.
type KVStore interface {
	// Get returns the value stored under key, or nil if there is none.
	Get(ctx context.Context, key []byte) []byte

	// Insert stores value under key and returns the previously stored value,
	// if any.
	Insert(ctx context.Context, key, value []byte) []byte

	// Remove deletes the value stored under key and returns it, if any.
	Remove(ctx context.Context, key []byte) []byte

	// NewIterator returns a new iterator over the store. The iterator is
	// positioned by Seek and must be closed after use.
	NewIterator(ctx context.Context) Iterator
}

// Iterator is a lazy, restartable, order-preserving iterator over store
// entries. Seek positions it at the first key greater than or equal to the
// given prefix and may be called again to restart the scan.
type Iterator interface {
	Seek(prefix []byte)
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Close()
}

// Store implements KVStore on top of a cometbft-db backend. Backend errors
// indicate a corrupted or unusable database, which no single call can repair,
// so they panic rather than propagate.
type Store struct {
	db dbm.DB
}

var _ KVStore = (*Store)(nil)

// New creates a new store over the given database.
func New(db dbm.DB) *Store {
	return &Store{db: db}
}

// NewMem creates a new store over a fresh in-memory database.
func NewMem() *Store {
	return New(dbm.NewMemDB())
}

// Get implements KVStore.
func (s *Store) Get(_ context.Context, key []byte) []byte {
	v, err := s.db.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

// Insert implements KVStore.
func (s *Store) Insert(ctx context.Context, key, value []byte) []byte {
	previous := s.Get(ctx, key)
	if err := s.db.Set(key, value); err != nil {
		panic(err)
	}
	return previous
}

// Remove implements KVStore.
func (s *Store) Remove(ctx context.Context, key []byte) []byte {
	previous := s.Get(ctx, key)
	if previous == nil {
		return nil
	}
	if err := s.db.Delete(key); err != nil {
		panic(err)
	}
	return previous
}

// NewIterator implements KVStore.
func (s *Store) NewIterator(ctx context.Context) Iterator {
	return &iterator{ctx: ctx, db: s.db}
}

// Root computes the current storage root digest: the SHA3-256 of all entries
// in key order, each length-prefixed. This stands in for the commit hash of
// an authenticated tree.
func (s *Store) Root(ctx context.Context) types.Hash {
	h := sha3.New256()
	var lenBuf [8]byte

	it := s.NewIterator(ctx)
	defer it.Close()
	for it.Seek(nil); it.Valid(); it.Next() {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(it.Key())))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(it.Key())
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(it.Value())))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(it.Value())
	}

	var root types.Hash
	copy(root[:], h.Sum(nil))
	return root
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
