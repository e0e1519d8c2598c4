package keyvalue

import "github.com/paratimelabs/paratime/keyformat"

var (
	// pendingMessagesKeyFormat is the key format for pending consensus
	// message metadata (0x00, emission index).
	pendingMessagesKeyFormat = keyformat.New(0x00, uint32(0))

	// nonceKeyFormat is the key format for transaction nonces (0xFF, nonce).
	// The 0xFF prefix keeps the nonce namespace disjoint from pending
	// messages and from derived encrypted keys.
	nonceKeyFormat = keyformat.New(0xFF, uint64(0))
)

// epochKey is the well-known key recording the epoch of the last processed
// round, so later logic can detect epoch transitions.
var epochKey = []byte{0x02}

// Pending-message metadata tags. The tag stored at emission time must match
// one of these when the message is reconciled.
const (
	metaWithdraw      = "withdraw"
	metaTransfer      = "transfer"
	metaAddEscrow     = "add_escrow"
	metaReclaimEscrow = "reclaim_escrow"
	metaUpdateRuntime = "update_runtime"
)
