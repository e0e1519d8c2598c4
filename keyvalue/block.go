package keyvalue

import (
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/paratimelabs/paratime/dispatcher"
)

// BlockHandler reconciles the previous round's cross-layer messages before
// any call of the new round is dispatched, and records the current epoch.
type BlockHandler struct {
	logger zerolog.Logger
}

var _ dispatcher.BatchHandler = (*BlockHandler)(nil)

// NewBlockHandler creates a new block handler.
func NewBlockHandler(logger zerolog.Logger) *BlockHandler {
	return &BlockHandler{
		logger: logger.With().Str("module", "keyvalue/block").Logger(),
	}
}

// StartBatch implements dispatcher.BatchHandler. It runs only outside
// check-only mode, since reconciliation mutates the store.
func (h *BlockHandler) StartBatch(ctx *dispatcher.Context) {
	if ctx.CheckOnly {
		return
	}

	h.processMessageResults(ctx)

	// Record the current epoch so later rounds can detect epoch transitions.
	var epoch [8]byte
	binary.BigEndian.PutUint64(epoch[:], uint64(ctx.Epoch))
	ctx.Store.Insert(ctx.Context, epochKey, epoch[:])
}

// EndBatch implements dispatcher.BatchHandler.
func (h *BlockHandler) EndBatch(*dispatcher.Context) {}

// processMessageResults removes the ledger record of every message the host
// reports as resolved, then verifies that no record survived. A leftover
// record means a message was emitted but never reported resolved, and an
// unrecognized metadata tag means the store or the protocol is inconsistent;
// neither is a condition any single call can repair.
func (h *BlockHandler) processMessageResults(ctx *dispatcher.Context) {
	if ctx.RoundResults != nil {
		for _, ev := range ctx.RoundResults.Messages {
			meta := ctx.Store.Remove(ctx.Context, pendingMessagesKeyFormat.Encode(ev.Index))

			switch string(meta) {
			case metaWithdraw, metaTransfer, metaAddEscrow, metaReclaimEscrow, metaUpdateRuntime:
				// Recognized message kinds need no further processing here.
			default:
				h.logger.Error().Uint32("index", ev.Index).Bytes("meta", meta).Msg("unexpected message metadata")
				panic(fmt.Sprintf("unexpected message metadata: %q", meta))
			}
		}
	}

	// Check for leftover pending message metadata.
	it := ctx.Store.NewIterator(ctx.Context)
	defer it.Close()
	it.Seek(pendingMessagesKeyFormat.EncodePartial())
	if it.Valid() {
		// Either there is no key at or beyond the namespace prefix, or the
		// next key belongs to a different namespace.
		var index uint32
		if pendingMessagesKeyFormat.Decode(it.Key(), &index) {
			h.logger.Error().Uint32("index", index).Msg("leftover message metadata")
			panic(fmt.Sprintf("leftover message metadata (some messages not processed?): key=%x", it.Key()))
		}
	}
}
