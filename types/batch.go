package types

import "encoding/json"

// Batch is an ordered set of raw serialized calls delivered together for one
// round. Results are returned in the same order.
type Batch [][]byte

// Call is a single runtime method invocation as produced by the host.
// Args stay opaque until the registered handler's decoder runs.
type Call struct {
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

// Output is the serialized result of one executed call.
// Exactly one of the fields is set.
type Output struct {
	Success json.RawMessage `json:"success,omitempty"`
	Error   *string         `json:"error,omitempty"`
}

// CheckTxResult is the lightweight result of a check-mode call. A zero Error
// means the call would have succeeded.
type CheckTxResult struct {
	Error Error `json:"error"`
}

// IsSuccess returns true if the checked call was valid.
func (r *CheckTxResult) IsSuccess() bool {
	return r.Error.Code == 0
}

// ExecuteTxResult is the result of dispatching a single call in execute mode.
type ExecuteTxResult struct {
	// Output is the serialized Output union for this call.
	Output []byte `json:"output"`
	// Tags are the tags emitted while executing this call.
	Tags Tags `json:"tags,omitempty"`
}

// ExecuteBatchResult is the result of executing a full batch.
type ExecuteBatchResult struct {
	// Results are the per-call results, order-preserving with the input batch.
	Results []ExecuteTxResult `json:"results"`
	// Messages are the cross-layer messages emitted during the batch.
	Messages []Message `json:"messages,omitempty"`
	// BlockTags are batch-level tags (none in this profile).
	BlockTags Tags `json:"block_tags,omitempty"`
	// BatchWeightLimits are custom batch weight limits (unset in this profile).
	BatchWeightLimits map[string]uint64 `json:"batch_weight_limits,omitempty"`
}

// MessageEvent reports the resolution of a previously emitted message.
type MessageEvent struct {
	Module string `json:"module,omitempty"`
	Code   uint32 `json:"code,omitempty"`
	// Index is the emission-order index assigned when the message was emitted.
	Index uint32 `json:"index,omitempty"`
}

// IsSuccess returns true if the message was processed successfully.
func (e *MessageEvent) IsSuccess() bool {
	return e.Code == 0
}

// RoundResults carries the host's summary of the previous round, including
// which emitted messages have been resolved by the consensus layer.
type RoundResults struct {
	Messages []MessageEvent `json:"messages,omitempty"`
}
