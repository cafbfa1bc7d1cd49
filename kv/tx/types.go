package tx

import "math"

// DbIndex identifies a logical database namespace inside one store.
type DbIndex uint16

// ShardId identifies a physical shard. Each shard is single threaded with
// respect to its own data.
type ShardId uint16

// TxId is a monotonically assigned transaction id.
type TxId uint64

// LockFp is a key fingerprint used by the lock table instead of the raw key.
type LockFp uint64

// SlotId is the key-space partition identifier supplied by the cluster layer.
type SlotId uint16

const (
	InvalidDbId DbIndex = math.MaxUint16
	InvalidSid  ShardId = math.MaxUint16

	// MaxDbId caps the number of logical databases. Reasonable starting point.
	MaxDbId DbIndex = 1024
)

// DbContext selects the database an operation runs against, stamped with the
// shard-local clock.
type DbContext struct {
	DbIndex   DbIndex
	TimeNowMs uint64
}

// OpArgs is the execution context threaded through every shard-side call.
// Slot is the optional routing slot the cluster layer attaches for
// multi-tenant routing; nil outside cluster mode.
type OpArgs struct {
	Shard  ShardId
	TxId   TxId
	DbCntx DbContext
	Slot   *SlotId
}
