package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paratimelabs/paratime/storage"
	"github.com/paratimelabs/paratime/types"
)

type pingArgs struct {
	Msg string `json:"msg"`
}

func newTestContext(checkOnly bool) *Context {
	store := storage.NewMem()
	return &Context{
		Context:   context.Background(),
		Round:     1,
		CheckOnly: checkOnly,
		Store:     store,
	}
}

func call(t *testing.T, method string, args interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	encoded, err := json.Marshal(types.Call{Method: method, Args: raw})
	require.NoError(t, err)
	return encoded
}

func decodeOutput(t *testing.T, raw []byte) types.Output {
	t.Helper()
	var output types.Output
	require.NoError(t, json.Unmarshal(raw, &output))
	return output
}

func TestDispatcherExecuteBatch(t *testing.T) {
	d := New(zerolog.Nop())
	d.AddMethod(NewMethod("ping", func(args *pingArgs, ctx *Context) (string, error) {
		ctx.EmitTag([]byte("ping"), []byte(args.Msg))
		return "pong: " + args.Msg, nil
	}))
	d.AddMethod(NewMethod("fail", func(args *pingArgs, ctx *Context) (string, error) {
		return "", errors.New("handler failed")
	}))

	batch := types.Batch{
		call(t, "ping", pingArgs{Msg: "one"}),
		call(t, "fail", pingArgs{}),
		call(t, "missing", pingArgs{}),
		[]byte("not json"),
	}

	result, err := d.ExecuteBatch(newTestContext(false), batch)
	require.NoError(t, err)
	require.Len(t, result.Results, 4)

	output := decodeOutput(t, result.Results[0].Output)
	require.Nil(t, output.Error)
	assert.Equal(t, json.RawMessage(`"pong: one"`), output.Success)
	require.Len(t, result.Results[0].Tags, 1)
	assert.Equal(t, []byte("ping"), result.Results[0].Tags[0].Key)
	assert.Equal(t, []byte("one"), result.Results[0].Tags[0].Value)

	output = decodeOutput(t, result.Results[1].Output)
	require.NotNil(t, output.Error)
	assert.Equal(t, "handler failed", *output.Error)
	// Tags from the earlier call must not leak into the failed one.
	assert.Empty(t, result.Results[1].Tags)

	output = decodeOutput(t, result.Results[2].Output)
	require.NotNil(t, output.Error)
	assert.Equal(t, "method not found: missing", *output.Error)

	output = decodeOutput(t, result.Results[3].Output)
	require.NotNil(t, output.Error)
	assert.Contains(t, *output.Error, "unable to parse call")
}

func TestDispatcherBadArguments(t *testing.T) {
	d := New(zerolog.Nop())
	d.AddMethod(NewMethod("ping", func(args *pingArgs, ctx *Context) (string, error) {
		return "pong", nil
	}))

	encoded, err := json.Marshal(types.Call{Method: "ping", Args: json.RawMessage(`[1, 2]`)})
	require.NoError(t, err)

	result, err := d.ExecuteBatch(newTestContext(false), types.Batch{encoded})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)

	output := decodeOutput(t, result.Results[0].Output)
	require.NotNil(t, output.Error)
	assert.Contains(t, *output.Error, "unable to parse call arguments")
}

func TestDispatcherNoArguments(t *testing.T) {
	d := New(zerolog.Nop())
	d.AddMethod(NewMethod("version", func(args *struct{}, ctx *Context) (string, error) {
		return "v1", nil
	}))

	// A call with no arguments at all must still dispatch.
	result, err := d.ExecuteBatch(newTestContext(false), types.Batch{[]byte(`{"method":"version"}`)})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)

	output := decodeOutput(t, result.Results[0].Output)
	require.Nil(t, output.Error)
	assert.Equal(t, json.RawMessage(`"v1"`), output.Success)
}

func TestDispatcherLastRegistrationWins(t *testing.T) {
	d := New(zerolog.Nop())
	d.AddMethod(NewMethod("ping", func(args *struct{}, ctx *Context) (string, error) {
		return "first", nil
	}))
	d.AddMethod(NewMethod("ping", func(args *struct{}, ctx *Context) (string, error) {
		return "second", nil
	}))

	result, err := d.ExecuteBatch(newTestContext(false), types.Batch{call(t, "ping", struct{}{})})
	require.NoError(t, err)

	output := decodeOutput(t, result.Results[0].Output)
	require.Nil(t, output.Error)
	assert.Equal(t, json.RawMessage(`"second"`), output.Success)
}

func TestDispatcherCheckBatch(t *testing.T) {
	d := New(zerolog.Nop())
	d.AddMethod(NewMethod("ping", func(args *pingArgs, ctx *Context) (string, error) {
		ctx.EmitTag([]byte("ping"), []byte(args.Msg))
		if ctx.CheckOnly {
			return "", CheckOnlySuccess{}
		}
		return "pong", nil
	}))
	d.AddMethod(NewMethod("fail", func(args *pingArgs, ctx *Context) (string, error) {
		return "", errors.New("handler failed")
	}))

	ctx := newTestContext(true)
	results, err := d.CheckBatch(ctx, types.Batch{
		call(t, "ping", pingArgs{Msg: "one"}),
		call(t, "fail", pingArgs{}),
		call(t, "missing", pingArgs{}),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// The check-only sentinel is reported as a success, not an error.
	assert.True(t, results[0].IsSuccess())
	assert.False(t, results[1].IsSuccess())
	assert.Equal(t, "handler failed", results[1].Error.Message)
	assert.False(t, results[2].IsSuccess())
	assert.Equal(t, "method not found: missing", results[2].Error.Message)

	// Tags emitted during a check never surface.
	assert.Empty(t, ctx.TakeTags())
}

func TestDispatcherHooks(t *testing.T) {
	var trace []string

	d := New(zerolog.Nop())
	d.SetContextInitializer(ContextInitializerFunc(func(ctx *Context) {
		trace = append(trace, "init")
		ctx.Runtime = "state"
	}))
	d.SetBatchHandler(batchHandlerFunc{
		start: func(ctx *Context) { trace = append(trace, "start") },
		end:   func(ctx *Context) { trace = append(trace, "end") },
	})
	d.AddMethod(NewMethod("ping", func(args *struct{}, ctx *Context) (string, error) {
		trace = append(trace, "call")
		require.Equal(t, "state", ctx.Runtime)
		return "pong", nil
	}))

	_, err := d.ExecuteBatch(newTestContext(false), types.Batch{call(t, "ping", struct{}{})})
	require.NoError(t, err)
	assert.Equal(t, []string{"init", "start", "call", "end"}, trace)
}

type batchHandlerFunc struct {
	start func(ctx *Context)
	end   func(ctx *Context)
}

func (h batchHandlerFunc) StartBatch(ctx *Context) { h.start(ctx) }
func (h batchHandlerFunc) EndBatch(ctx *Context)   { h.end(ctx) }

func TestDispatcherAbort(t *testing.T) {
	var abort atomic.Bool

	d := New(zerolog.Nop())
	d.SetAbortFlag(&abort)
	d.AddMethod(NewMethod("ping", func(args *struct{}, ctx *Context) (string, error) {
		return "pong", nil
	}))

	batch := types.Batch{call(t, "ping", struct{}{})}

	abort.Store(true)
	_, err := d.ExecuteBatch(newTestContext(false), batch)
	assert.ErrorIs(t, err, ErrBatchAborted)
	_, err = d.CheckBatch(newTestContext(true), batch)
	assert.ErrorIs(t, err, ErrBatchAborted)

	abort.Store(false)
	result, err := d.ExecuteBatch(newTestContext(false), batch)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
}

func TestDispatcherMessages(t *testing.T) {
	d := New(zerolog.Nop())
	d.AddMethod(NewMethod("emit", func(args *struct{}, ctx *Context) (uint32, error) {
		return ctx.EmitMessage(types.Message{
			Staking: &types.StakingMessage{
				Versioned: types.Versioned{V: 0},
				Transfer:  &types.Transfer{To: "dst", Amount: "10"},
			},
		}), nil
	}))

	result, err := d.ExecuteBatch(newTestContext(false), types.Batch{
		call(t, "emit", struct{}{}),
		call(t, "emit", struct{}{}),
	})
	require.NoError(t, err)

	// Messages are assigned emission-order indices and surface once per batch.
	output := decodeOutput(t, result.Results[0].Output)
	assert.Equal(t, json.RawMessage(`0`), output.Success)
	output = decodeOutput(t, result.Results[1].Output)
	assert.Equal(t, json.RawMessage(`1`), output.Success)
	require.Len(t, result.Messages, 2)
	require.NotNil(t, result.Messages[0].Staking)
	assert.Equal(t, "dst", result.Messages[0].Staking.Transfer.To)
}

func TestDispatcherFinalizer(t *testing.T) {
	var finalized *types.Hash

	d := New(zerolog.Nop())
	d.SetFinalizer(FinalizerFunc(func(newStorageRoot types.Hash) {
		finalized = &newStorageRoot
	}))

	root := types.HashBytes([]byte("root"))
	d.Finalize(root)
	require.NotNil(t, finalized)
	assert.Equal(t, root, *finalized)
}
