package host

import (
	"net/http"

	"github.com/gorilla/rpc/v2"
	rpcjson "github.com/gorilla/rpc/v2/json"

	"github.com/paratimelabs/paratime/types"
)

// Service is the JSON-RPC facade over a round driver, for development hosts.
type Service struct {
	runtime *Runtime
}

// RunRoundArgs are the arguments to the paratime.RunRound API method.
type RunRoundArgs struct {
	Epoch uint64   `json:"epoch"`
	Calls [][]byte `json:"calls"`
}

// RunRoundReply is the reply of the paratime.RunRound API method.
type RunRoundReply struct {
	Round          uint64                  `json:"round"`
	Results        []types.ExecuteTxResult `json:"results"`
	Messages       []types.Message         `json:"messages,omitempty"`
	NewStorageRoot types.Hash              `json:"new_storage_root"`
}

// RunRound executes the given calls as the next round.
func (s *Service) RunRound(r *http.Request, args *RunRoundArgs, reply *RunRoundReply) error {
	round := s.runtime.Round()
	resp, err := s.runtime.RunRound(r.Context(), types.Epoch(args.Epoch), args.Calls)
	if err != nil {
		return err
	}

	reply.Round = round
	reply.Results = resp.Results
	reply.Messages = resp.Messages
	reply.NewStorageRoot = resp.NewStorageRoot
	return nil
}

// CheckBatchArgs are the arguments to the paratime.CheckBatch API method.
type CheckBatchArgs struct {
	Epoch uint64   `json:"epoch"`
	Calls [][]byte `json:"calls"`
}

// CheckBatchReply is the reply of the paratime.CheckBatch API method.
type CheckBatchReply struct {
	Results []types.CheckTxResult `json:"results"`
}

// CheckBatch evaluates the given calls in check mode.
func (s *Service) CheckBatch(r *http.Request, args *CheckBatchArgs, reply *CheckBatchReply) error {
	results, err := s.runtime.CheckBatch(r.Context(), types.Epoch(args.Epoch), args.Calls)
	if err != nil {
		return err
	}

	reply.Results = results
	return nil
}

// NewHandler creates an HTTP handler exposing the runtime under the
// "paratime" JSON-RPC namespace.
func NewHandler(runtime *Runtime) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(rpcjson.NewCodec(), "application/json")
	if err := server.RegisterService(&Service{runtime: runtime}, "paratime"); err != nil {
		return nil, err
	}
	return server, nil
}
