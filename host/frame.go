// Package host implements the host side of the runtime boundary: the framed
// batch protocol, an in-process round driver and a JSON-RPC service facade.
package host

import (
	"fmt"

	"github.com/shamaton/msgpack/v2"

	"github.com/paratimelabs/paratime/types"
)

// BatchRequest is one round's worth of work delivered by the host.
type BatchRequest struct {
	// Round is the round this batch executes as.
	Round uint64 `msgpack:"round"`
	// Epoch is the consensus epoch of the round.
	Epoch types.Epoch `msgpack:"epoch"`
	// CheckOnly selects check mode instead of execute mode.
	CheckOnly bool `msgpack:"check_only"`
	// Calls are the raw serialized calls, in dispatch order.
	Calls [][]byte `msgpack:"calls"`
	// RoundResults summarizes the previous round. Ignored in check mode.
	RoundResults *types.RoundResults `msgpack:"round_results"`
}

// BatchResponse carries the results of one processed batch back to the host.
// CheckResults is set for check mode, the remaining fields for execute mode.
type BatchResponse struct {
	CheckResults   []types.CheckTxResult   `msgpack:"check_results"`
	Results        []types.ExecuteTxResult `msgpack:"results"`
	Messages       []types.Message         `msgpack:"messages"`
	BlockTags      types.Tags              `msgpack:"block_tags"`
	NewStorageRoot types.Hash              `msgpack:"new_storage_root"`
}

// EncodeRequest serializes a batch request frame.
func EncodeRequest(req *BatchRequest) ([]byte, error) {
	data, err := msgpack.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("host: unable to encode batch request: %w", err)
	}
	return data, nil
}

// DecodeRequest deserializes a batch request frame.
func DecodeRequest(data []byte) (*BatchRequest, error) {
	var req BatchRequest
	if err := msgpack.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("host: unable to decode batch request: %w", err)
	}
	return &req, nil
}

// EncodeResponse serializes a batch response frame.
func EncodeResponse(resp *BatchResponse) ([]byte, error) {
	data, err := msgpack.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("host: unable to encode batch response: %w", err)
	}
	return data, nil
}

// DecodeResponse deserializes a batch response frame.
func DecodeResponse(data []byte) (*BatchResponse, error) {
	var resp BatchResponse
	if err := msgpack.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("host: unable to decode batch response: %w", err)
	}
	return &resp, nil
}
