package journal

import (
	"github.com/emberdb/ember/kv/tx"
)

// The recorder operations below are the journaling surface the rest of the
// system calls. They build the right entry variant for an execution context
// and hand it to the journal, which assigns the LSN. Malformed input is a
// bug in the caller and panics; a sink that cannot take the item surfaces as
// an error the transaction coordinator must handle.

// RecordJournal journals one command executed on a shard. args is either the
// shard-scoped view of the command or a flat slice, depending on whether the
// replayed command needs all original arguments or just this shard's subset.
// With multiCommands set the entry is one leg of a transaction fan-out that
// must later be closed by RecordFinish.
func (j *Journal) RecordJournal(op tx.OpArgs, cmd string, args PayloadArgs, shardCnt uint32, multiCommands bool) error {
	if cmd == "" {
		panic("journal: empty command name")
	}
	if shardCnt == 0 {
		panic("journal: zero shard count")
	}
	opcode := OpCommand
	if multiCommands {
		opcode = OpMultiCommand
	}
	e := &Entry{
		EntryBase: EntryBase{
			TxId:     op.TxId,
			Opcode:   opcode,
			DbId:     op.DbCntx.DbIndex,
			ShardCnt: shardCnt,
			Slot:     op.Slot,
		},
		Payload: Payload{Cmd: cmd, Args: args},
	}
	return j.appendEntry(e)
}

// RecordFinish closes a multi-command fan-out with the Exec marker. A
// transaction that fanned out into one entry per participating shard is not
// complete for downstream replay until this marker is journaled; replay
// holds the legs back and applies them atomically once it arrives.
func (j *Journal) RecordFinish(op tx.OpArgs, shardCnt uint32) error {
	if shardCnt == 0 {
		panic("journal: zero shard count")
	}
	e := &Entry{
		EntryBase: EntryBase{
			TxId:     op.TxId,
			Opcode:   OpExec,
			DbId:     op.DbCntx.DbIndex,
			ShardCnt: shardCnt,
			Slot:     op.Slot,
		},
	}
	return j.appendEntry(e)
}

// RecordExpiry journals a passive key expiry discovered while holding the
// key's lock. Expiry is not part of any client-issued command, so the entry
// runs under its own synthetic transaction id. Must be called from the shard
// thread holding the key.
func (j *Journal) RecordExpiry(db tx.DbIndex, key string) error {
	if j.ExpiryLockCheck != nil && !j.ExpiryLockCheck(db, key) {
		panic("journal: expiry recorded without holding the key lock")
	}
	e := &Entry{
		EntryBase: EntryBase{
			TxId:     tx.TxId(j.expireTxId.Inc()),
			Opcode:   OpExpired,
			DbId:     db,
			ShardCnt: 1,
		},
		Payload: Payload{Cmd: "DEL", Args: CmdArgs{key}},
	}
	return j.appendEntry(e)
}

// RecordLsn appends a bare sequence marker: no payload, no mutation, just
// the entry's own LSN on the wire so a consumer can resynchronize its
// expected next sequence number.
func (j *Journal) RecordLsn() error {
	return j.appendEntry(&Entry{EntryBase: EntryBase{Opcode: OpLsn}})
}
