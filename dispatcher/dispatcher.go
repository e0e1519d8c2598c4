// Package dispatcher implements the transaction batch dispatcher: a method
// registry with typed handlers and the batch processing state machine that
// drives them in check or execute mode.
package dispatcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/paratimelabs/paratime/types"
)

// ModuleName is the error module of the dispatcher itself.
const ModuleName = "rhp/dispatcher"

// ErrBatchAborted is returned when the abort flag is raised while a batch is
// in flight. The whole batch fails; no partial results are returned.
var ErrBatchAborted = types.NewError(ModuleName, 1, "batch aborted")

// MethodNotFoundError is returned when a call names an unregistered method.
type MethodNotFoundError struct {
	Method string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("method not found: %s", e.Method)
}

// CheckOnlySuccess signals that a check-only call would have succeeded. It is
// not a real error: handlers return it instead of an output so check-mode
// verification reports validity without performing any side effects.
type CheckOnlySuccess struct{}

func (CheckOnlySuccess) Error() string {
	return "transaction check successful"
}

// BatchHandler has its StartBatch and EndBatch hooks called at the
// appropriate times when configured on a Dispatcher.
type BatchHandler interface {
	// StartBatch is called before the first call in a batch is dispatched.
	StartBatch(ctx *Context)

	// EndBatch is called after all calls have been dispatched.
	EndBatch(ctx *Context)
}

// ContextInitializer initializes the per-batch context, typically installing
// the caller-supplied runtime extension state.
type ContextInitializer interface {
	Init(ctx *Context)
}

// ContextInitializerFunc adapts a plain function to a ContextInitializer.
type ContextInitializerFunc func(ctx *Context)

// Init implements ContextInitializer.
func (f ContextInitializerFunc) Init(ctx *Context) {
	f(ctx)
}

// Finalizer is called once per round after storage has been committed. The
// storage handle is no longer available at this point; anything that needs
// storage must run inside the batch instead.
type Finalizer interface {
	Finalize(newStorageRoot types.Hash)
}

// FinalizerFunc adapts a plain function to a Finalizer.
type FinalizerFunc func(newStorageRoot types.Hash)

// Finalize implements Finalizer.
func (f FinalizerFunc) Finalize(newStorageRoot types.Hash) {
	f(newStorageRoot)
}

// Method couples a method name with an erased invoke function. Construct one
// with NewMethod to keep static types at the handler boundary.
type Method struct {
	name string
	fn   func(args json.RawMessage, ctx *Context) (json.RawMessage, error)
}

// Name returns the method name.
func (m Method) Name() string {
	return m.name
}

// NewMethod creates a dispatchable method from a typed handler. The call
// arguments are decoded into Call before the handler runs and its Output is
// encoded back into the opaque representation afterwards.
func NewMethod[Call, Output any](name string, handler func(call *Call, ctx *Context) (Output, error)) Method {
	return Method{
		name: name,
		fn: func(args json.RawMessage, ctx *Context) (json.RawMessage, error) {
			if len(args) == 0 {
				args = json.RawMessage("null")
			}
			var call Call
			if err := json.Unmarshal(args, &call); err != nil {
				return nil, fmt.Errorf("unable to parse call arguments: %w", err)
			}

			output, err := handler(&call, ctx)
			if err != nil {
				return nil, err
			}

			encoded, err := json.Marshal(output)
			if err != nil {
				return nil, fmt.Errorf("unable to serialize call output: %w", err)
			}
			return encoded, nil
		},
	}
}

// Dispatcher holds the registered runtime methods and processes batches of
// calls against them. Calls within one batch are processed strictly
// sequentially; the only cross-thread interaction is the abort flag.
type Dispatcher struct {
	logger zerolog.Logger

	methods      map[string]Method
	batchHandler BatchHandler
	ctxInit      ContextInitializer
	finalizer    Finalizer
	abort        *atomic.Bool
}

// New creates a new dispatcher with no registered methods.
func New(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:  logger.With().Str("module", ModuleName).Logger(),
		methods: make(map[string]Method),
	}
}

// AddMethod registers a method. Re-registering a name silently replaces the
// previous handler.
func (d *Dispatcher) AddMethod(method Method) {
	d.methods[method.Name()] = method
}

// SetBatchHandler configures the batch handler.
func (d *Dispatcher) SetBatchHandler(handler BatchHandler) {
	d.batchHandler = handler
}

// SetContextInitializer configures the context initializer.
func (d *Dispatcher) SetContextInitializer(initializer ContextInitializer) {
	d.ctxInit = initializer
}

// SetFinalizer configures the finalizer.
func (d *Dispatcher) SetFinalizer(finalizer Finalizer) {
	d.finalizer = finalizer
}

// SetAbortFlag configures the shared abort flag. It is polled once per call
// boundary, so an in-flight handler is not preempted.
func (d *Dispatcher) SetAbortFlag(abort *atomic.Bool) {
	d.abort = abort
}

// CheckBatch evaluates a batch in check mode: calls are validated but no
// persistent effects survive and no tags are surfaced.
func (d *Dispatcher) CheckBatch(ctx *Context, batch types.Batch) ([]types.CheckTxResult, error) {
	if d.ctxInit != nil {
		d.ctxInit.Init(ctx)
	}
	if d.batchHandler != nil {
		d.batchHandler.StartBatch(ctx)
	}

	results := make([]types.CheckTxResult, 0, len(batch))
	for _, call := range batch {
		if d.aborting() {
			d.logger.Warn().Uint64("round", ctx.Round).Msg("check batch aborted")
			return nil, ErrBatchAborted
		}
		results = append(results, d.dispatchCheck(call, ctx))
		// Tags emitted during a check are never surfaced.
		_ = ctx.TakeTags()
	}

	return results, nil
}

// ExecuteBatch executes a batch: each call produces a serialized output and
// its tags, and the accumulated cross-layer messages are finalized after the
// end-of-batch hook.
func (d *Dispatcher) ExecuteBatch(ctx *Context, batch types.Batch) (*types.ExecuteBatchResult, error) {
	if d.ctxInit != nil {
		d.ctxInit.Init(ctx)
	}
	if d.batchHandler != nil {
		d.batchHandler.StartBatch(ctx)
	}

	d.logger.Debug().Uint64("round", ctx.Round).Int("batch_size", len(batch)).Msg("executing batch")

	results := make([]types.ExecuteTxResult, 0, len(batch))
	for _, call := range batch {
		if d.aborting() {
			d.logger.Warn().Uint64("round", ctx.Round).Msg("batch aborted")
			return nil, ErrBatchAborted
		}
		results = append(results, d.dispatchExecute(call, ctx))
	}

	if d.batchHandler != nil {
		d.batchHandler.EndBatch(ctx)
	}

	return &types.ExecuteBatchResult{
		Results:  results,
		Messages: ctx.close(),
		// No block tags or batch weight limits in this profile.
		BlockTags:         nil,
		BatchWeightLimits: nil,
	}, nil
}

// Finalize runs the configured finalizer with the committed storage root.
func (d *Dispatcher) Finalize(newStorageRoot types.Hash) {
	if d.finalizer != nil {
		d.finalizer.Finalize(newStorageRoot)
	}
}

func (d *Dispatcher) aborting() bool {
	return d.abort != nil && d.abort.Load()
}

// dispatchCheck dispatches a raw call in check mode.
func (d *Dispatcher) dispatchCheck(call []byte, ctx *Context) types.CheckTxResult {
	_, err := d.dispatchFallible(call, ctx)
	if err == nil {
		return types.CheckTxResult{}
	}

	var checkOK CheckOnlySuccess
	if errors.As(err, &checkOK) {
		// The call would have succeeded; suppress the sentinel.
		return types.CheckTxResult{}
	}

	return types.CheckTxResult{
		Error: types.Error{
			Code:    1,
			Message: err.Error(),
		},
	}
}

// dispatchExecute dispatches a raw call in execute mode.
func (d *Dispatcher) dispatchExecute(call []byte, ctx *Context) types.ExecuteTxResult {
	var output types.Output
	response, err := d.dispatchFallible(call, ctx)
	if err != nil {
		msg := err.Error()
		output.Error = &msg
	} else {
		output.Success = response
	}

	encoded, err := json.Marshal(output)
	if err != nil {
		// Output unions of raw values always serialize.
		panic(err)
	}

	return types.ExecuteTxResult{
		Output: encoded,
		Tags:   ctx.TakeTags(),
	}
}

func (d *Dispatcher) dispatchFallible(call []byte, ctx *Context) (json.RawMessage, error) {
	var parsed types.Call
	if err := json.Unmarshal(call, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse call: %w", err)
	}

	method, ok := d.methods[parsed.Method]
	if !ok {
		return nil, &MethodNotFoundError{Method: parsed.Method}
	}
	return method.fn(parsed.Args, ctx)
}
