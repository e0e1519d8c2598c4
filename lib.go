// Package paratime is the transaction-processing core of a confidential
// runtime: it dispatches batches of opaque calls to typed method handlers,
// guards them against replay, keeps a confidentiality-preserving key/value
// store and reconciles consensus-layer messages at round boundaries.
package paratime

import (
	"github.com/rs/zerolog"

	"github.com/paratimelabs/paratime/dispatcher"
	"github.com/paratimelabs/paratime/storage"
)

// Name is the name of this runtime core.
const Name = "paratime"

// Version is the version of this runtime core.
const Version = "0.1.0"

// KVStore is the runtime's view of the round-scoped key/value store.
type KVStore = storage.KVStore

// Dispatcher holds registered runtime methods and processes call batches.
type Dispatcher = dispatcher.Dispatcher

// Context is the per-batch dispatch state passed to method handlers.
type Context = dispatcher.Context

// BatchHandler receives the start-of-batch and end-of-batch hooks.
type BatchHandler = dispatcher.BatchHandler

// Finalizer runs after storage commit; it has no storage access.
type Finalizer = dispatcher.Finalizer

// NewDispatcher creates a new dispatcher with no registered methods.
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return dispatcher.New(logger)
}
