package keyvalue

import "github.com/paratimelabs/paratime/types"

// Key names a single entry. Every call carries a nonce for replay protection.
type Key struct {
	Key   string `json:"key"`
	Nonce uint64 `json:"nonce"`
}

// KeyValue is a single entry together with its value.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Nonce uint64 `json:"nonce"`
}

// Withdraw requests a withdrawal from a consensus account into the runtime
// account.
type Withdraw struct {
	Nonce    uint64         `json:"nonce"`
	Withdraw types.Withdraw `json:"withdraw"`
}

// Transfer requests a transfer from the runtime account to a consensus
// account.
type Transfer struct {
	Nonce    uint64         `json:"nonce"`
	Transfer types.Transfer `json:"transfer"`
}

// AddEscrow requests an escrow from the runtime account to a consensus
// account.
type AddEscrow struct {
	Nonce  uint64          `json:"nonce"`
	Escrow types.AddEscrow `json:"escrow"`
}

// ReclaimEscrow requests reclaiming escrowed tokens to the runtime account.
type ReclaimEscrow struct {
	Nonce         uint64              `json:"nonce"`
	ReclaimEscrow types.ReclaimEscrow `json:"reclaim_escrow"`
}

// UpdateRuntime requests updating the runtime's descriptor in the consensus
// registry.
type UpdateRuntime struct {
	Nonce         uint64                  `json:"nonce"`
	UpdateRuntime types.RuntimeDescriptor `json:"update_runtime"`
}
