package keyvalue

import (
	"fmt"

	"github.com/paratimelabs/paratime/dispatcher"
)

// DuplicateNonceError is returned when a call reuses an already consumed
// nonce.
type DuplicateNonceError struct {
	Nonce uint64
}

func (e *DuplicateNonceError) Error() string {
	return fmt.Sprintf("duplicate nonce: %d", e.Nonce)
}

// checkNonce guards a call against replay: the presence of the nonce key is
// the sole proof of prior use. The reservation is only written in execute
// mode, so a check-mode preview never mutates the store; this means pure
// nonce duplication is only detected definitively during execution.
func checkNonce(ctx *dispatcher.Context, nonce uint64) error {
	nonceKey := nonceKeyFormat.Encode(nonce)
	if ctx.Store.Get(ctx.Context, nonceKey) != nil {
		return &DuplicateNonceError{Nonce: nonce}
	}
	if !ctx.CheckOnly {
		ctx.Store.Insert(ctx.Context, nonceKey, []byte{0x01})
	}
	return nil
}
