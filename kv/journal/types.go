package journal

import (
	"fmt"
	"strings"

	"github.com/emberdb/ember/kv/tx"
)

// Op is the opcode of a journal entry. The values are part of the wire
// format and must not change.
type Op uint8

const (
	OpNoop         Op = 0
	OpSelect       Op = 6
	OpExpired      Op = 9
	OpCommand      Op = 10
	OpMultiCommand Op = 11
	OpExec         Op = 12
	OpPing         Op = 13
	OpFin          Op = 14
	OpLsn          Op = 15
)

func (op Op) String() string {
	switch op {
	case OpNoop:
		return "noop"
	case OpSelect:
		return "select"
	case OpExpired:
		return "expired"
	case OpCommand:
		return "command"
	case OpMultiCommand:
		return "multi-command"
	case OpExec:
		return "exec"
	case OpPing:
		return "ping"
	case OpFin:
		return "fin"
	case OpLsn:
		return "lsn"
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// LSN is the log sequence number: a strictly increasing identifier of
// journal entries. Readers treat any gap or regression as a fatal
// replication-consistency signal.
type LSN uint64

// EntryBase carries the fields common to every journal entry.
type EntryBase struct {
	TxId     tx.TxId
	Opcode   Op
	DbId     tx.DbIndex
	ShardCnt uint32
	Slot     *tx.SlotId
	Lsn      LSN
}

// PayloadArgs is the closed set of argument representations a journaled
// command may carry: a flat argument list or a shard-scoped view. The
// serializer dispatches over this set by type switch.
type PayloadArgs interface {
	Size() int
	Range(f func(arg string) bool)
}

// CmdArgs is the flat representation: parts of a full command.
type CmdArgs []string

func (a CmdArgs) Size() int {
	return len(a)
}

func (a CmdArgs) Range(f func(arg string) bool) {
	for _, arg := range a {
		if !f(arg) {
			return
		}
	}
}

// Payload is a non-owning view into a command executed on a shard. It must
// be consumed before the backing argument buffer is freed.
type Payload struct {
	Cmd  string
	Args PayloadArgs
}

// Entry is a single journal record: either a control instruction or a
// command. Entries are transient, built per operation on the calling shard
// thread and consumed synchronously by the journal.
type Entry struct {
	EntryBase
	Payload Payload
}

// HasPayload reports whether the entry carries a command.
func (e *Entry) HasPayload() bool {
	return e.Payload.Cmd != ""
}

func (e *Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s txid=%d db=%d shards=%d lsn=%d", e.Opcode, e.TxId, e.DbId, e.ShardCnt, e.Lsn)
	if e.Slot != nil {
		fmt.Fprintf(&b, " slot=%d", *e.Slot)
	}
	if e.HasPayload() {
		b.WriteString(" cmd=")
		b.WriteString(e.Payload.Cmd)
		if e.Payload.Args != nil {
			b.WriteString(" args=[")
			first := true
			e.Payload.Args.Range(func(arg string) bool {
				if !first {
					b.WriteByte(' ')
				}
				b.WriteString(arg)
				first = false
				return true
			})
			b.WriteByte(']')
		}
	}
	return b.String()
}

// ParsedEntry is the owned, decoded counterpart of Entry produced when a
// replica reads the log back. Unlike Entry it may outlive the read call.
type ParsedEntry struct {
	EntryBase
	Cmd CmdData
}

// CmdData owns the raw command bytes; CmdArgs alias into CommandBuf.
type CmdData struct {
	CommandBuf []byte
	CmdArgs    [][]byte
}

func (p *ParsedEntry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s txid=%d db=%d shards=%d lsn=%d", p.Opcode, p.TxId, p.DbId, p.ShardCnt, p.Lsn)
	if p.Slot != nil {
		fmt.Fprintf(&b, " slot=%d", *p.Slot)
	}
	if len(p.Cmd.CmdArgs) > 0 {
		b.WriteString(" cmd=[")
		for i, arg := range p.Cmd.CmdArgs {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.Write(arg)
		}
		b.WriteByte(']')
	}
	return b.String()
}

// JournalItem is the wire-ready projection of an entry: fully owned and
// self contained, safe to queue and transmit asynchronously.
type JournalItem struct {
	Lsn    LSN
	Opcode Op
	Data   []byte
	Slot   *tx.SlotId
}

// ChangeCallback is invoked, in registration order, for every item the
// journal accepts. With await set the journal expects the callback to finish
// handling the item before returning.
type ChangeCallback func(item *JournalItem, await bool)

// Sink is the downstream replication transport. Append is called in LSN
// order and may report backpressure or unavailability through its error.
type Sink interface {
	Append(item *JournalItem, await bool) error
}
