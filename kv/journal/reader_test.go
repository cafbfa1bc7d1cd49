package journal

import (
	"bytes"
	"io"
	"testing"

	"github.com/emberdb/ember/kv/tx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	slot := tx.SlotId(7)
	e := &Entry{
		EntryBase: EntryBase{
			TxId:     99,
			Opcode:   OpCommand,
			DbId:     3,
			ShardCnt: 2,
			Slot:     &slot,
		},
		Payload: Payload{Cmd: "MSET", Args: CmdArgs{"k1", "v1", "k2", "v2"}},
	}
	data, err := Serialize(e)
	require.NoError(t, err)

	r := NewReader(bytes.NewReader(data))
	pe, err := r.ReadEntry()
	require.NoError(t, err)

	assert.Equal(t, OpCommand, pe.Opcode)
	assert.Equal(t, tx.TxId(99), pe.TxId)
	assert.Equal(t, tx.DbIndex(3), pe.DbId)
	assert.Equal(t, uint32(2), pe.ShardCnt)
	require.NotNil(t, pe.Slot)
	assert.Equal(t, tx.SlotId(7), *pe.Slot)
	assert.Equal(t, LSN(1), pe.Lsn)

	require.Len(t, pe.Cmd.CmdArgs, 5)
	assert.Equal(t, "MSET", string(pe.Cmd.CmdArgs[0]))
	assert.Equal(t, "v2", string(pe.Cmd.CmdArgs[4]))

	// The decoded args alias the owned buffer.
	assert.Equal(t, "MSETk1v1k2v2", string(pe.Cmd.CommandBuf))

	_, err = r.ReadEntry()
	assert.Equal(t, io.EOF, err)
}

func TestSerializeShardArgsPayload(t *testing.T) {
	args := []string{"MSET-IGNORED", "k1", "v1", "k2", "v2"}
	view := tx.NewShardArgs(args, []tx.IndexSlice{{Begin: 1, End: 3}})

	e := &Entry{
		EntryBase: EntryBase{TxId: 1, Opcode: OpMultiCommand, ShardCnt: 2},
		Payload:   Payload{Cmd: "MSET", Args: view},
	}
	data, err := Serialize(e)
	require.NoError(t, err)

	pe, err := NewReader(bytes.NewReader(data)).ReadEntry()
	require.NoError(t, err)
	require.Len(t, pe.Cmd.CmdArgs, 3)
	assert.Equal(t, "MSET", string(pe.Cmd.CmdArgs[0]))
	assert.Equal(t, "k1", string(pe.Cmd.CmdArgs[1]))
	assert.Equal(t, "v1", string(pe.Cmd.CmdArgs[2]))
}

func TestSerializeControlOps(t *testing.T) {
	for _, op := range []Op{OpNoop, OpPing, OpFin} {
		data, err := Serialize(&Entry{EntryBase: EntryBase{Opcode: op}})
		require.NoError(t, err)
		pe, err := NewReader(bytes.NewReader(data)).ReadEntry()
		require.NoError(t, err)
		assert.Equal(t, op, pe.Opcode)
	}

	data, err := Serialize(&Entry{EntryBase: EntryBase{Opcode: OpSelect, DbId: 9}})
	require.NoError(t, err)
	pe, err := NewReader(bytes.NewReader(data)).ReadEntry()
	require.NoError(t, err)
	assert.Equal(t, tx.DbIndex(9), pe.DbId)

	data, err = Serialize(&Entry{EntryBase: EntryBase{Opcode: OpExec, TxId: 5, ShardCnt: 3}})
	require.NoError(t, err)
	pe, err = NewReader(bytes.NewReader(data)).ReadEntry()
	require.NoError(t, err)
	assert.Equal(t, tx.TxId(5), pe.TxId)
	assert.Equal(t, uint32(3), pe.ShardCnt)
}

func TestSerializePayloadRequired(t *testing.T) {
	_, err := Serialize(&Entry{EntryBase: EntryBase{Opcode: OpCommand}})
	assert.Error(t, err)
}

func TestLsnMarkerResync(t *testing.T) {
	sink := &memSink{}
	j := NewJournal(0, sink)
	require.NoError(t, j.RecordJournal(opArgs(0, 1, 0), "SET", CmdArgs{"a", "1"}, 1, false))
	require.NoError(t, j.RecordLsn())
	require.NoError(t, j.RecordJournal(opArgs(0, 2, 0), "SET", CmdArgs{"b", "2"}, 1, false))

	var stream bytes.Buffer
	for _, item := range sink.snapshot() {
		stream.Write(item.Data)
	}
	r := NewReader(&stream)
	var lsns []LSN
	for {
		pe, err := r.ReadEntry()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		lsns = append(lsns, pe.Lsn)
	}
	assert.Equal(t, []LSN{1, 2, 3, 4}, lsns)
}

func TestLsnMarkerMismatchIsFatal(t *testing.T) {
	// A marker claiming LSN 5 at stream position 1 is a gap.
	data, err := Serialize(&Entry{EntryBase: EntryBase{Opcode: OpLsn, Lsn: 5}})
	require.NoError(t, err)

	_, err = NewReader(bytes.NewReader(data)).ReadEntry()
	assert.Error(t, err)
}

func TestTruncatedStream(t *testing.T) {
	e := &Entry{
		EntryBase: EntryBase{TxId: 1, Opcode: OpCommand, ShardCnt: 1},
		Payload:   Payload{Cmd: "SET", Args: CmdArgs{"k", "v"}},
	}
	data, err := Serialize(e)
	require.NoError(t, err)

	_, err = NewReader(bytes.NewReader(data[:len(data)-2])).ReadEntry()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}
