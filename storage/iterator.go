package storage

import (
	"context"

	dbm "github.com/cometbft/cometbft-db"
)

// iterator adapts a cometbft-db range iterator to the seekable Iterator
// contract. Each Seek discards the current backend iterator and opens a new
// one at [prefix, end-of-store), which makes the scan restartable.
type iterator struct {
	ctx context.Context
	db  dbm.DB
	it  dbm.Iterator
}

var _ Iterator = (*iterator)(nil)

func (i *iterator) Seek(prefix []byte) {
	i.reset()

	start := prefix
	if len(start) == 0 {
		start = nil
	}
	it, err := i.db.Iterator(start, nil)
	if err != nil {
		panic(err)
	}
	i.it = it
}

func (i *iterator) Valid() bool {
	if i.it == nil || !i.it.Valid() {
		return false
	}
	return i.ctx.Err() == nil
}

func (i *iterator) Next() {
	i.it.Next()
}

func (i *iterator) Key() []byte {
	return i.it.Key()
}

func (i *iterator) Value() []byte {
	return i.it.Value()
}

func (i *iterator) Close() {
	i.reset()
}

func (i *iterator) reset() {
	if i.it != nil {
		_ = i.it.Close()
		i.it = nil
	}
}
