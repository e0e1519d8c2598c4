package host

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/paratimelabs/paratime/dispatcher"
	"github.com/paratimelabs/paratime/storage"
	"github.com/paratimelabs/paratime/types"
)

// Runtime drives a dispatcher across rounds the way the host protocol does:
// it owns the store between rounds, feeds resolved-message summaries back
// into the next round, commits storage and invokes the finalizer with the
// new root.
type Runtime struct {
	logger     zerolog.Logger
	dispatcher *dispatcher.Dispatcher
	store      *storage.Store

	round   uint64
	pending []types.Message
	abort   atomic.Bool
}

// NewRuntime creates a new round driver over the given dispatcher and store.
// The driver installs itself as the dispatcher's abort flag owner.
func NewRuntime(d *dispatcher.Dispatcher, store *storage.Store, logger zerolog.Logger) *Runtime {
	r := &Runtime{
		logger:     logger.With().Str("module", "host/runtime").Logger(),
		dispatcher: d,
		store:      store,
	}
	d.SetAbortFlag(&r.abort)
	return r
}

// Round returns the next round number to be executed.
func (r *Runtime) Round() uint64 {
	return r.round
}

// Abort raises the abort flag. The in-flight batch, if any, fails at its
// next call boundary.
func (r *Runtime) Abort() {
	r.abort.Store(true)
}

// ProcessBatch processes one framed batch request against the store.
func (r *Runtime) ProcessBatch(ctx context.Context, req *BatchRequest) (*BatchResponse, error) {
	bctx := &dispatcher.Context{
		Context:      ctx,
		Round:        req.Round,
		Epoch:        req.Epoch,
		CheckOnly:    req.CheckOnly,
		RoundResults: req.RoundResults,
		Store:        r.store,
	}

	if req.CheckOnly {
		// Checks never reconcile; the context contract keeps RoundResults nil.
		bctx.RoundResults = nil
		checkResults, err := r.dispatcher.CheckBatch(bctx, req.Calls)
		if err != nil {
			return nil, err
		}
		return &BatchResponse{CheckResults: checkResults}, nil
	}

	result, err := r.dispatcher.ExecuteBatch(bctx, req.Calls)
	if err != nil {
		return nil, err
	}

	// Commit storage, then finalize. The finalizer has no store handle.
	root := r.store.Root(ctx)
	r.dispatcher.Finalize(root)
	r.logger.Debug().Uint64("round", req.Round).Str("root", root.String()).Msg("round finalized")

	return &BatchResponse{
		Results:        result.Results,
		Messages:       result.Messages,
		BlockTags:      result.BlockTags,
		NewStorageRoot: root,
	}, nil
}

// CheckBatch evaluates calls in check mode against the current store state.
func (r *Runtime) CheckBatch(ctx context.Context, epoch types.Epoch, calls types.Batch) ([]types.CheckTxResult, error) {
	resp, err := r.ProcessBatch(ctx, &BatchRequest{
		Round:     r.round,
		Epoch:     epoch,
		CheckOnly: true,
		Calls:     calls,
	})
	if err != nil {
		return nil, err
	}
	return resp.CheckResults, nil
}

// RunRound executes calls as the next round, reporting every message emitted
// in the previous round as resolved, and advances the round counter on
// success.
func (r *Runtime) RunRound(ctx context.Context, epoch types.Epoch, calls types.Batch) (*BatchResponse, error) {
	roundResults := &types.RoundResults{}
	for i := range r.pending {
		roundResults.Messages = append(roundResults.Messages, types.MessageEvent{
			Index: uint32(i),
		})
	}

	resp, err := r.ProcessBatch(ctx, &BatchRequest{
		Round:        r.round,
		Epoch:        epoch,
		Calls:        calls,
		RoundResults: roundResults,
	})
	if err != nil {
		return nil, err
	}

	r.pending = resp.Messages
	r.round++
	return resp, nil
}
