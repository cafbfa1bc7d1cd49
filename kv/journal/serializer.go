package journal

import (
	"encoding/binary"

	"github.com/emberdb/ember/kv/tx"
	"github.com/pingcap/errors"
)

// Wire layout of one entry: a single opcode byte followed by the uvarint
// header fields that opcode needs. Command payloads are written as a string
// count followed by length-prefixed strings, the command name first. The
// entry's own LSN is carried on the wire only by OpLsn markers; everything
// else is sequenced implicitly by stream position.

// Serialize encodes e into a self-contained record.
func Serialize(e *Entry) ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(e.Opcode))
	switch e.Opcode {
	case OpNoop, OpPing, OpFin:
		return buf, nil
	case OpSelect:
		return appendUvarint(buf, uint64(e.DbId)), nil
	case OpLsn:
		return appendUvarint(buf, uint64(e.Lsn)), nil
	case OpExec:
		buf = appendUvarint(buf, uint64(e.TxId))
		buf = appendUvarint(buf, uint64(e.ShardCnt))
		return buf, nil
	case OpCommand, OpMultiCommand, OpExpired:
		if !e.HasPayload() {
			return nil, errors.Errorf("journal: %s entry without payload", e.Opcode)
		}
		buf = appendUvarint(buf, uint64(e.TxId))
		buf = appendUvarint(buf, uint64(e.DbId))
		buf = appendUvarint(buf, uint64(e.ShardCnt))
		buf = appendSlot(buf, e.Slot)
		numArgs := 0
		if e.Payload.Args != nil {
			numArgs = e.Payload.Args.Size()
		}
		buf = appendUvarint(buf, uint64(1+numArgs))
		buf = appendString(buf, e.Payload.Cmd)
		if e.Payload.Args != nil {
			e.Payload.Args.Range(func(arg string) bool {
				buf = appendString(buf, arg)
				return true
			})
		}
		return buf, nil
	}
	return nil, errors.Errorf("journal: cannot serialize opcode %d", uint8(e.Opcode))
}

func appendUvarint(b []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(b, tmp[:n]...)
}

func appendString(b []byte, s string) []byte {
	b = appendUvarint(b, uint64(len(s)))
	return append(b, s...)
}

func appendSlot(b []byte, slot *tx.SlotId) []byte {
	if slot == nil {
		return append(b, 0)
	}
	b = append(b, 1)
	return appendUvarint(b, uint64(*slot))
}
