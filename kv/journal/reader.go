package journal

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/emberdb/ember/kv/tx"
	"github.com/pingcap/errors"
)

// maxPayloadParts bounds the string count of a payload so a corrupted stream
// cannot drive an unbounded allocation.
const maxPayloadParts = 1 << 20

// Reader decodes a serialized journal stream back into owned entries.
//
// LSNs are reconstructed from stream position: every record that consumed an
// LSN on the write side advances the expected sequence by one, ping items do
// not. An OpLsn marker carries its LSN explicitly and must match the
// expected value exactly; a gap or regression there means the replication
// stream is inconsistent and reading stops with an error.
type Reader struct {
	src  *bufio.Reader
	next LSN
}

// NewReader reads a journal stream from its beginning.
func NewReader(r io.Reader) *Reader {
	return &Reader{src: bufio.NewReader(r), next: 1}
}

// ReadEntry decodes the next record. io.EOF is returned only at a record
// boundary; a stream cut mid-record yields io.ErrUnexpectedEOF.
func (r *Reader) ReadEntry() (*ParsedEntry, error) {
	opByte, err := r.src.ReadByte()
	if err != nil {
		return nil, err
	}
	pe := &ParsedEntry{}
	pe.Opcode = Op(opByte)

	switch pe.Opcode {
	case OpNoop, OpPing, OpFin:
	case OpSelect:
		db, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		pe.DbId = tx.DbIndex(db)
	case OpLsn:
		v, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		if LSN(v) != r.next {
			return nil, errors.Errorf("journal: lsn marker %d, expected %d", v, r.next)
		}
	case OpExec:
		txid, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		shardCnt, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		pe.TxId = tx.TxId(txid)
		pe.ShardCnt = uint32(shardCnt)
	case OpCommand, OpMultiCommand, OpExpired:
		if err := r.readCommandHeader(pe); err != nil {
			return nil, err
		}
		cmd, err := r.readCmdData()
		if err != nil {
			return nil, err
		}
		pe.Cmd = cmd
	default:
		return nil, errors.Errorf("journal: unknown opcode %d", opByte)
	}

	// Sequence the entry the way the writer did: pings carry the current
	// LSN without consuming it.
	pe.Lsn = r.next
	if pe.Opcode != OpPing {
		r.next++
	}
	return pe, nil
}

func (r *Reader) readCommandHeader(pe *ParsedEntry) error {
	txid, err := r.readUvarint()
	if err != nil {
		return err
	}
	dbid, err := r.readUvarint()
	if err != nil {
		return err
	}
	shardCnt, err := r.readUvarint()
	if err != nil {
		return err
	}
	pe.TxId = tx.TxId(txid)
	pe.DbId = tx.DbIndex(dbid)
	pe.ShardCnt = uint32(shardCnt)

	hasSlot, err := r.src.ReadByte()
	if err != nil {
		return unexpectedEOF(err)
	}
	if hasSlot != 0 {
		slot, err := r.readUvarint()
		if err != nil {
			return err
		}
		sid := tx.SlotId(slot)
		pe.Slot = &sid
	}
	return nil
}

// readCmdData reads the length-prefixed payload strings into one owned
// buffer, returning argument slices aliasing into it.
func (r *Reader) readCmdData() (CmdData, error) {
	n, err := r.readUvarint()
	if err != nil {
		return CmdData{}, err
	}
	if n == 0 || n > maxPayloadParts {
		return CmdData{}, errors.Errorf("journal: bad payload part count %d", n)
	}
	parts := make([][]byte, n)
	total := 0
	for i := range parts {
		l, err := r.readUvarint()
		if err != nil {
			return CmdData{}, err
		}
		p := make([]byte, l)
		if _, err := io.ReadFull(r.src, p); err != nil {
			return CmdData{}, unexpectedEOF(err)
		}
		parts[i] = p
		total += int(l)
	}
	// Repack into a single buffer. Capacity is exact, so the arg slices
	// below stay valid.
	buf := make([]byte, 0, total)
	args := make([][]byte, 0, len(parts))
	for _, p := range parts {
		start := len(buf)
		buf = append(buf, p...)
		args = append(args, buf[start:len(buf):len(buf)])
	}
	return CmdData{CommandBuf: buf, CmdArgs: args}, nil
}

func (r *Reader) readUvarint() (uint64, error) {
	v, err := binary.ReadUvarint(r.src)
	if err != nil {
		return 0, unexpectedEOF(err)
	}
	return v, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return errors.Trace(io.ErrUnexpectedEOF)
	}
	return errors.Trace(err)
}
