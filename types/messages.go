package types

import "encoding/json"

// Address is a printable consensus-layer account address. Just use it as a
// label for developers.
type Address = string

// Quantity is a string encoding of an arbitrary-precision token amount,
// more portable than a native integer.
type Quantity = string

// Versioned carries a message body version number.
type Versioned struct {
	V uint16 `json:"v"`
}

// NewVersioned creates a new versioned structure with the given version.
func NewVersioned(v uint16) Versioned {
	return Versioned{V: v}
}

// Message is a cross-layer message emitted by the runtime toward the
// consensus layer. Exactly one of the fields is set.
type Message struct {
	Staking  *StakingMessage  `json:"staking,omitempty"`
	Registry *RegistryMessage `json:"registry,omitempty"`
}

// StakingMessage is a message destined for the consensus staking module.
// Exactly one of the body fields is set.
type StakingMessage struct {
	Versioned

	Withdraw      *Withdraw      `json:"withdraw,omitempty"`
	Transfer      *Transfer      `json:"transfer,omitempty"`
	AddEscrow     *AddEscrow     `json:"add_escrow,omitempty"`
	ReclaimEscrow *ReclaimEscrow `json:"reclaim_escrow,omitempty"`
}

// RegistryMessage is a message destined for the consensus registry module.
type RegistryMessage struct {
	Versioned

	UpdateRuntime *RuntimeDescriptor `json:"update_runtime,omitempty"`
}

// Withdraw withdraws from a consensus account into the runtime account.
type Withdraw struct {
	From   Address  `json:"from"`
	Amount Quantity `json:"amount"`
}

// Transfer transfers from the runtime account to a consensus account.
type Transfer struct {
	To     Address  `json:"to"`
	Amount Quantity `json:"amount"`
}

// AddEscrow escrows from the runtime account to a consensus account.
type AddEscrow struct {
	Account Address  `json:"account"`
	Amount  Quantity `json:"amount"`
}

// ReclaimEscrow reclaims previously escrowed tokens to the runtime account.
type ReclaimEscrow struct {
	Account Address  `json:"account"`
	Shares  Quantity `json:"shares"`
}

// RuntimeDescriptor describes a runtime registration to be updated in the
// consensus registry. The descriptor body is opaque to this core.
type RuntimeDescriptor struct {
	ID   string          `json:"id"`
	Spec json.RawMessage `json:"spec,omitempty"`
}
