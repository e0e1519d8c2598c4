// Package keyvalue implements the example runtime method set: plain and
// encrypted key/value operations plus consensus-layer message emission. It
// exists to exercise the dispatch protocol and the confidential storage
// layer, not to be a flexible scripting engine.
package keyvalue

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/paratimelabs/paratime/dispatcher"
	"github.com/paratimelabs/paratime/keymanager"
	"github.com/paratimelabs/paratime/types"
)

// maxValueSize is the largest value accepted by insert.
const maxValueSize = 128

// RuntimeContext is the extension state installed into each batch context.
type RuntimeContext struct {
	// RuntimeID is the static identifier of this runtime.
	RuntimeID string
	// KeyManager is the key-manager client used for encrypted operations.
	KeyManager keymanager.Client
}

// runtimeContext extracts the runtime extension state from a batch context.
// It panics when the context initializer has not run, which is a wiring bug.
func runtimeContext(ctx *dispatcher.Context) *RuntimeContext {
	rtc, ok := ctx.Runtime.(*RuntimeContext)
	if !ok {
		panic("keyvalue: runtime context not initialized")
	}
	return rtc
}

// App is the keyvalue runtime application.
type App struct {
	runtimeID string
	km        keymanager.Client
	logger    zerolog.Logger
}

// New creates a new keyvalue application.
func New(runtimeID string, km keymanager.Client, logger zerolog.Logger) *App {
	return &App{
		runtimeID: runtimeID,
		km:        km,
		logger:    logger.With().Str("module", "keyvalue").Logger(),
	}
}

// Register wires the application's methods, block handler and context
// initializer into the given dispatcher.
func (a *App) Register(d *dispatcher.Dispatcher) {
	d.AddMethod(dispatcher.NewMethod("get_runtime_id", a.getRuntimeID))
	d.AddMethod(dispatcher.NewMethod("insert", a.insert))
	d.AddMethod(dispatcher.NewMethod("get", a.get))
	d.AddMethod(dispatcher.NewMethod("remove", a.remove))
	d.AddMethod(dispatcher.NewMethod("enc_insert", a.encInsert))
	d.AddMethod(dispatcher.NewMethod("enc_get", a.encGet))
	d.AddMethod(dispatcher.NewMethod("enc_remove", a.encRemove))
	d.AddMethod(dispatcher.NewMethod("consensus_withdraw", a.consensusWithdraw))
	d.AddMethod(dispatcher.NewMethod("consensus_transfer", a.consensusTransfer))
	d.AddMethod(dispatcher.NewMethod("consensus_add_escrow", a.consensusAddEscrow))
	d.AddMethod(dispatcher.NewMethod("consensus_reclaim_escrow", a.consensusReclaimEscrow))
	d.AddMethod(dispatcher.NewMethod("update_runtime", a.updateRuntime))

	d.SetBatchHandler(NewBlockHandler(a.logger))
	d.SetContextInitializer(dispatcher.ContextInitializerFunc(func(ctx *dispatcher.Context) {
		ctx.Runtime = &RuntimeContext{
			RuntimeID:  a.runtimeID,
			KeyManager: a.km,
		}
	}))
}

// getRuntimeID returns the static runtime identifier.
func (a *App) getRuntimeID(_ *struct{}, ctx *dispatcher.Context) (*string, error) {
	rtc := runtimeContext(ctx)
	return &rtc.RuntimeID, nil
}

// insert stores a key/value pair.
func (a *App) insert(args *KeyValue, ctx *dispatcher.Context) (*string, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if len(args.Value) > maxValueSize {
		return nil, errors.New("value too big to be inserted")
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}
	ctx.EmitTag([]byte("kv_op"), []byte("insert"))
	ctx.EmitTag([]byte("kv_key"), []byte(args.Key))

	return asString(ctx.Store.Insert(ctx.Context, []byte(args.Key), []byte(args.Value))), nil
}

// get retrieves a key/value pair.
func (a *App) get(args *Key, ctx *dispatcher.Context) (*string, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}
	ctx.EmitTag([]byte("kv_op"), []byte("get"))
	ctx.EmitTag([]byte("kv_key"), []byte(args.Key))

	return asString(ctx.Store.Get(ctx.Context, []byte(args.Key))), nil
}

// remove removes a key/value pair.
func (a *App) remove(args *Key, ctx *dispatcher.Context) (*string, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}
	ctx.EmitTag([]byte("kv_op"), []byte("remove"))
	ctx.EmitTag([]byte("kv_key"), []byte(args.Key))

	return asString(ctx.Store.Remove(ctx.Context, []byte(args.Key))), nil
}

// consensusWithdraw withdraws from the consensus layer into the runtime
// account.
func (a *App) consensusWithdraw(args *Withdraw, ctx *dispatcher.Context) (*struct{}, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}

	a.emitConsensusMessage(ctx, types.Message{
		Staking: &types.StakingMessage{
			Versioned: types.NewVersioned(0),
			Withdraw:  &args.Withdraw,
		},
	}, metaWithdraw)
	return nil, nil
}

// consensusTransfer transfers from the runtime account to another account in
// the consensus layer.
func (a *App) consensusTransfer(args *Transfer, ctx *dispatcher.Context) (*struct{}, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}

	a.emitConsensusMessage(ctx, types.Message{
		Staking: &types.StakingMessage{
			Versioned: types.NewVersioned(0),
			Transfer:  &args.Transfer,
		},
	}, metaTransfer)
	return nil, nil
}

// consensusAddEscrow adds escrow from the runtime account to an account in
// the consensus layer.
func (a *App) consensusAddEscrow(args *AddEscrow, ctx *dispatcher.Context) (*struct{}, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}

	a.emitConsensusMessage(ctx, types.Message{
		Staking: &types.StakingMessage{
			Versioned: types.NewVersioned(0),
			AddEscrow: &args.Escrow,
		},
	}, metaAddEscrow)
	return nil, nil
}

// consensusReclaimEscrow reclaims escrow to the runtime account.
func (a *App) consensusReclaimEscrow(args *ReclaimEscrow, ctx *dispatcher.Context) (*struct{}, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}

	a.emitConsensusMessage(ctx, types.Message{
		Staking: &types.StakingMessage{
			Versioned:     types.NewVersioned(0),
			ReclaimEscrow: &args.ReclaimEscrow,
		},
	}, metaReclaimEscrow)
	return nil, nil
}

// updateRuntime updates the runtime's descriptor in the consensus registry.
func (a *App) updateRuntime(args *UpdateRuntime, ctx *dispatcher.Context) (*struct{}, error) {
	if err := checkNonce(ctx, args.Nonce); err != nil {
		return nil, err
	}
	if ctx.CheckOnly {
		return nil, dispatcher.CheckOnlySuccess{}
	}

	a.emitConsensusMessage(ctx, types.Message{
		Registry: &types.RegistryMessage{
			Versioned:     types.NewVersioned(0),
			UpdateRuntime: &args.UpdateRuntime,
		},
	}, metaUpdateRuntime)
	return nil, nil
}

// emitConsensusMessage queues msg for the consensus layer and records its
// metadata in the pending-message ledger under the allocated index. The
// record must be removed exactly once, during reconciliation of the round in
// which the message becomes final.
func (a *App) emitConsensusMessage(ctx *dispatcher.Context, msg types.Message, meta string) {
	index := ctx.EmitMessage(msg)
	ctx.Store.Insert(ctx.Context, pendingMessagesKeyFormat.Encode(index), []byte(meta))
}

func asString(value []byte) *string {
	if value == nil {
		return nil
	}
	s := string(value)
	return &s
}
