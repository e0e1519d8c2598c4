package keyvalue

import (
	"fmt"

	"github.com/paratimelabs/paratime/crypto"
	"github.com/paratimelabs/paratime/dispatcher"
	"github.com/paratimelabs/paratime/keymanager"
)

// encryptionContext builds a storage encryption context for the given
// plaintext key. Fetching the key material is a blocking key-manager round
// trip scoped to the batch's I/O context; no other work proceeds within the
// call while it is in flight.
func (a *App) encryptionContext(ctx *dispatcher.Context, key []byte) (*crypto.EncryptionContext, error) {
	rtc := runtimeContext(ctx)

	keyPairID := keymanager.KeyPairIDFromKey(key)
	keys, err := rtc.KeyManager.GetOrCreateKeys(ctx.Context, keyPairID)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch encryption keys: %w", err)
	}

	return crypto.NewEncryptionContext(keys.StateKey), nil
}

// encInsert stores a key/value pair encrypted.
func (a *App) encInsert(args *KeyValue, ctx *dispatcher.Context) (*string, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}

	// NOTE: This is only for example purposes, the correct way would be to
	// also generate a unique deterministic nonce per key.
	var nonce [crypto.NonceSize]byte

	encCtx, err := a.encryptionContext(ctx, []byte(args.Key))
	if err != nil {
		return nil, err
	}
	return asString(encCtx.Insert(ctx.Context, ctx.Store, []byte(args.Key), []byte(args.Value), nonce[:])), nil
}

// encGet retrieves an encrypted key/value pair.
func (a *App) encGet(args *Key, ctx *dispatcher.Context) (*string, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}

	encCtx, err := a.encryptionContext(ctx, []byte(args.Key))
	if err != nil {
		return nil, err
	}
	return asString(encCtx.Get(ctx.Context, ctx.Store, []byte(args.Key))), nil
}

// encRemove removes an encrypted key/value pair.
func (a *App) encRemove(args *Key, ctx *dispatcher.Context) (*string, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}

	encCtx, err := a.encryptionContext(ctx, []byte(args.Key))
	if err != nil {
		return nil, err
	}
	return asString(encCtx.Remove(ctx.Context, ctx.Store, []byte(args.Key))), nil
}
