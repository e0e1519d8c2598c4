package dispatcher

import (
	"context"

	"github.com/paratimelabs/paratime/storage"
	"github.com/paratimelabs/paratime/types"
)

// Context is the per-batch dispatch state. It is created by the batch
// processor at batch start, shared by every call in the batch, and discarded
// at batch end. Handlers receive the storage handle only through it and must
// not retain the handle past the call.
type Context struct {
	// Context is the I/O cancellation scope for the batch.
	Context context.Context

	// Round is the current round number.
	Round uint64
	// Epoch is the current consensus epoch.
	Epoch types.Epoch
	// CheckOnly is true when the batch is evaluated in check mode. Check-mode
	// evaluation must never mutate persistent state.
	CheckOnly bool
	// RoundResults summarizes the previous round, including resolved
	// cross-layer messages. Nil in check mode.
	RoundResults *types.RoundResults

	// Store is the key/value store for the current round.
	Store storage.KVStore

	// Runtime is caller-supplied extension state, installed by the configured
	// context initializer.
	Runtime interface{}

	tags     types.Tags
	messages []types.Message
}

// EmitTag records a tag emitted by the call currently being dispatched.
func (c *Context) EmitTag(key, value []byte) {
	c.tags = append(c.tags, types.Tag{Key: key, Value: value})
}

// TakeTags returns the tags accumulated so far and clears the accumulator.
func (c *Context) TakeTags() types.Tags {
	tags := c.tags
	c.tags = nil
	return tags
}

// EmitMessage queues a cross-layer message for emission at the end of the
// batch and returns its emission-order index within the round.
func (c *Context) EmitMessage(msg types.Message) uint32 {
	c.messages = append(c.messages, msg)
	return uint32(len(c.messages) - 1)
}

// close finalizes the context and returns the accumulated messages.
func (c *Context) close() []types.Message {
	messages := c.messages
	c.messages = nil
	return messages
}
